package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBreakdownTotal(t *testing.T) {
	tests := []struct {
		name   string
		scores ScoreBreakdown
		want   float64
	}{
		{
			name: "sum of the four counted sub-scores",
			scores: ScoreBreakdown{
				Keyword:        1.0,
				Achievements:   0.75,
				SummaryQuality: 0.5,
				ToolsCerts:     0.25,
			},
			want: 2.5,
		},
		{
			name: "structure never enters the total",
			scores: ScoreBreakdown{
				Keyword:        1.0,
				Achievements:   1.0,
				SummaryQuality: 1.0,
				ToolsCerts:     1.0,
				Structure:      1.0,
			},
			want: 4.0,
		},
		{
			name:   "zero breakdown",
			scores: ScoreBreakdown{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.scores.Total(), 1e-9)
		})
	}
}

func TestScoreBreakdownTotal_NilReceiver(t *testing.T) {
	var s *ScoreBreakdown
	assert.Zero(t, s.Total())
}

func TestJobRequirementsIsEmpty(t *testing.T) {
	var nilReq *JobRequirements
	assert.True(t, nilReq.IsEmpty())
	assert.True(t, (&JobRequirements{ExperienceLevel: "Senior"}).IsEmpty())
	assert.False(t, (&JobRequirements{RequiredSkills: []string{"Go"}}).IsEmpty())
}
