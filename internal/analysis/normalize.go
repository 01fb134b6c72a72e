package analysis

import (
	"strings"

	"github.com/jonathan/job-pipeline/internal/types"
)

// skillNormalizations maps common skill name variants to canonical names.
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"aws":        "AWS",
	"gcp":        "GCP",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	"ci/cd":      "CI/CD",
	"rest":       "REST",
	"grpc":       "gRPC",
}

// NormalizeSkillName normalizes a skill name to its canonical form.
func NormalizeSkillName(name string) string {
	if name == "" {
		return ""
	}

	normalized := strings.TrimSpace(name)
	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// All-caps single words outside the canonical map get plain title case.
	if normalized == strings.ToUpper(normalized) && len(normalized) > 1 {
		if !strings.Contains(lower, " ") {
			return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
		}
		return normalized
	}

	// Mixed case passes through unchanged.
	if normalized != strings.ToLower(normalized) {
		return normalized
	}

	// All-lowercase single words get their first letter capitalized.
	if !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// normalizeSkills canonicalizes a skill list and drops duplicates while
// preserving order.
func normalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return skills
	}

	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		name := NormalizeSkillName(skill)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// normalizeRequirements cleans up the skill lists in place.
func normalizeRequirements(reqs *types.JobRequirements) {
	if reqs == nil {
		return
	}
	reqs.RequiredSkills = normalizeSkills(reqs.RequiredSkills)
	reqs.PreferredSkills = normalizeSkills(reqs.PreferredSkills)
}
