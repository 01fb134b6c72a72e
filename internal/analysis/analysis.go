// Package analysis implements the AI analysis stage: structured requirement
// extraction from job descriptions and fit scoring of the base resume
// against each posting.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/prompts"
	"github.com/jonathan/job-pipeline/internal/schemas"
	"github.com/jonathan/job-pipeline/internal/types"
)

// minDescriptionLength is the shortest job description worth sending to the
// API.
const minDescriptionLength = 50

// Options carries the run settings the analysis stage needs.
type Options struct {
	// ResumeText is the extracted text of the base resume.
	ResumeText string
	// APIDelay spaces successive API calls.
	APIDelay time.Duration
}

// Analyzer extracts requirements and scores resume fit one record at a time.
type Analyzer struct {
	client llm.Client
	opts   Options

	// swapped by tests
	extract func(ctx context.Context, description string) (*types.JobRequirements, error)
	score   func(ctx context.Context, description string) (*types.ScoreBreakdown, error)
}

// New builds an Analyzer on top of an LLM client.
func New(client llm.Client, opts Options) *Analyzer {
	a := &Analyzer{client: client, opts: opts}
	a.extract = a.extractRequirements
	a.score = a.scoreFit
	return a
}

// Analyze fills in the record's requirements, score breakdown, and total
// score. Failures are absorbed into the record status; the returned error is
// reserved for context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, rec *types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	desc := strings.TrimSpace(rec.Description)
	if len(desc) < minDescriptionLength {
		rec.Status = types.StatusErrorMissingData
		rec.Notes = fmt.Sprintf("job description too short (%d chars)", len(desc))
		return nil
	}

	reqs, err := a.extract(ctx, desc)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rec.Status, rec.Notes = failure(err, types.StatusErrorExtraction, "requirement extraction")
		return nil
	}
	rec.Requirements = reqs

	if err := llm.Pause(ctx, a.opts.APIDelay); err != nil {
		return err
	}

	scores, err := a.score(ctx, desc)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rec.Status, rec.Notes = failure(err, types.StatusErrorAnalysis, "fit analysis")
		return nil
	}

	rec.Scores = scores
	rec.TotalScore = scores.Total()
	rec.Status = types.StatusAIAnalyzed
	rec.Notes = ""
	return nil
}

// failure maps an AI call failure onto a record status and note. Auth
// failures override the stage-specific status.
func failure(err error, status types.Status, op string) (types.Status, string) {
	if llm.IsAuth(err) {
		status = types.StatusErrorAPIAuth
	}
	return status, fmt.Sprintf("%s failed: %v", op, err)
}

// extractRequirements asks the model for structured requirements and
// validates the response before accepting it.
func (a *Analyzer) extractRequirements(ctx context.Context, description string) (*types.JobRequirements, error) {
	prompt := llm.BuildExtractionPrompt(llm.JobRequirementsSchema(), description)

	raw, err := llm.CallWithRetry(ctx, llm.DefaultRetryAttempts, a.opts.APIDelay, func() (string, error) {
		return a.client.GenerateJSON(ctx, prompt, llm.TierLite)
	})
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.JobRequirements, raw); err != nil {
		return nil, &ResponseError{Message: "requirements response failed validation", Raw: raw, Cause: err}
	}

	var reqs types.JobRequirements
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, &ResponseError{Message: "requirements response is not valid JSON", Raw: raw, Cause: err}
	}

	normalizeRequirements(&reqs)
	if reqs.IsEmpty() {
		return nil, &ResponseError{Message: "requirements response has no content", Raw: raw}
	}
	return &reqs, nil
}

func (a *Analyzer) scoreFit(ctx context.Context, description string) (*types.ScoreBreakdown, error) {
	return ScoreFit(ctx, a.client, a.opts.ResumeText, description, a.opts.APIDelay)
}

// ScoreFit scores resumeText against a job description using the shared fit
// prompt. The rescoring stage calls it with tailored resume text.
func ScoreFit(ctx context.Context, client llm.Client, resumeText, description string, delay time.Duration) (*types.ScoreBreakdown, error) {
	tmpl, err := prompts.Get("analysis.json", "score-fit")
	if err != nil {
		return nil, err
	}
	prompt := prompts.Format(tmpl, map[string]string{
		"ResumeText":     resumeText,
		"JobDescription": description,
	})

	raw, err := llm.CallWithRetry(ctx, llm.DefaultRetryAttempts, delay, func() (string, error) {
		return client.GenerateJSON(ctx, prompt, llm.TierStandard)
	})
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.ScoreBreakdown, raw); err != nil {
		return nil, &ResponseError{Message: "score response failed validation", Raw: raw, Cause: err}
	}

	var scores types.ScoreBreakdown
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, &ResponseError{Message: "score response is not valid JSON", Raw: raw, Cause: err}
	}
	return &scores, nil
}
