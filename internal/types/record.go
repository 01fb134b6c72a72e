// Package types defines the shared data structures for the job application pipeline.
package types

import "time"

// Record is one job-application candidate tracked through the pipeline.
// JobID is the stable external identifier; every stage mutates the record in
// place and writes exactly one terminal-for-that-stage status.
type Record struct {
	JobID string `json:"job_id"`

	// Discovery fields
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location,omitempty"`
	Link      string `json:"link"`
	PostedAge string `json:"posted_age,omitempty"`
	Promoted  bool   `json:"promoted,omitempty"`
	EasyApply bool   `json:"easy_apply,omitempty"`

	// Detail fields
	Description     string   `json:"description,omitempty"`
	CompanyOverview string   `json:"company_overview,omitempty"`
	Contacts        []string `json:"contacts,omitempty"`

	// Extraction fields (derived from Description by the analysis stage)
	Requirements *JobRequirements `json:"requirements,omitempty"`

	// Scoring fields
	Scores     *ScoreBreakdown `json:"scores,omitempty"`
	TotalScore float64         `json:"total_score"`

	// Tailoring fields
	TailoredSummary     string `json:"tailored_summary,omitempty"`
	TailoredBullets     string `json:"tailored_bullets,omitempty"`
	TailoredSkills      string `json:"tailored_skills,omitempty"`
	TailoredHTMLPath    string `json:"tailored_html_path,omitempty"`
	TailoredPDFPath     string `json:"tailored_pdf_path,omitempty"`
	PageCount           int    `json:"page_count,omitempty"`
	RetailoringAttempts int    `json:"retailoring_attempts"`

	// Rescoring fields
	TailoredScore float64 `json:"tailored_score,omitempty"`
	ScoreDelta    float64 `json:"score_delta,omitempty"`

	// Status is the record's state-machine state, the only field the stage
	// gate reads to decide eligibility. Notes carries the human-readable
	// explanation for the most recent transition.
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// JobRequirements holds the structured lists extracted from a job description.
type JobRequirements struct {
	Responsibilities []string `json:"responsibilities"`
	RequiredSkills   []string `json:"required_skills"`
	PreferredSkills  []string `json:"preferred_skills,omitempty"`
	ExperienceLevel  string   `json:"experience_level,omitempty"`
	Qualifications   []string `json:"qualifications,omitempty"`
}

// IsEmpty reports whether extraction produced no usable content.
func (r *JobRequirements) IsEmpty() bool {
	if r == nil {
		return true
	}
	return len(r.Responsibilities) == 0 && len(r.RequiredSkills) == 0 &&
		len(r.PreferredSkills) == 0 && len(r.Qualifications) == 0
}
