package types

// ScoreBreakdown holds the five sub-scores returned by the AI fit analysis
// plus the qualitative feedback lists. Each sub-score is a quartile value in
// [0, 1]. Structure is informational only and never enters the total.
type ScoreBreakdown struct {
	Keyword        float64 `json:"keyword_match"`
	Achievements   float64 `json:"achievements"`
	SummaryQuality float64 `json:"summary_quality"`
	ToolsCerts     float64 `json:"tools_certifications"`
	Structure      float64 `json:"structure"`

	Strengths       []string `json:"strengths,omitempty"`
	Areas           []string `json:"areas_for_improvement,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Total returns the composite match score: the sum of the four counted
// sub-scores. Structure is not counted.
func (s *ScoreBreakdown) Total() float64 {
	if s == nil {
		return 0
	}
	return s.Keyword + s.Achievements + s.SummaryQuality + s.ToolsCerts
}

// TailoredContent is the structured output of one tailoring generation round.
// The JSON keys are the contract with the generation prompts. SkillCategories
// maps a category heading to the skills listed under it.
type TailoredContent struct {
	Summary         string              `json:"tailored_summary"`
	ExperienceTitle string              `json:"relevant_experience_title"`
	Bullets         []string            `json:"tailored_bullets"`
	SkillCategories map[string][]string `json:"skill_categories"`
}
