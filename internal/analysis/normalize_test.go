package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-pipeline/internal/types"
)

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "golang variant", input: "golang", expected: "Go"},
		{name: "spaced variant", input: "go lang", expected: "Go"},
		{name: "abbreviation", input: "JS", expected: "JavaScript"},
		{name: "k8s", input: "k8s", expected: "Kubernetes"},
		{name: "postgres mixed case", input: "Postgres", expected: "PostgreSQL"},
		{name: "acronym kept", input: "AWS", expected: "AWS"},
		{name: "all caps title cased", input: "DOCKER", expected: "Docker"},
		{name: "lowercase capitalized", input: "python", expected: "Python"},
		{name: "mixed case passthrough", input: "PyTorch", expected: "PyTorch"},
		{name: "multi word lowercase passthrough", input: "machine learning", expected: "machine learning"},
		{name: "whitespace trimmed", input: "  typescript  ", expected: "TypeScript"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestNormalizeSkills_DedupesAndKeepsOrder(t *testing.T) {
	in := []string{"golang", "Go", " go lang ", "js", "", "postgres"}

	out := normalizeSkills(in)

	assert.Equal(t, []string{"Go", "JavaScript", "PostgreSQL"}, out)
}

func TestNormalizeRequirements_InPlace(t *testing.T) {
	reqs := &types.JobRequirements{
		RequiredSkills:  []string{"golang", "k8s"},
		PreferredSkills: []string{"reactjs", "react.js"},
	}

	normalizeRequirements(reqs)

	assert.Equal(t, []string{"Go", "Kubernetes"}, reqs.RequiredSkills)
	assert.Equal(t, []string{"React"}, reqs.PreferredSkills)
}

func TestNormalizeRequirements_Nil(t *testing.T) {
	normalizeRequirements(nil)
}
