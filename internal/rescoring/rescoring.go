// Package rescoring implements the rescoring stage: the tailored resume is
// scored against the same fit rubric as the base resume, and the comparison
// decides whether the record is finished or cycles back for re-tailoring.
package rescoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/job-pipeline/internal/analysis"
	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/resume"
	"github.com/jonathan/job-pipeline/internal/types"
)

// minDescriptionLength is the shortest job description worth scoring
// against.
const minDescriptionLength = 50

// Options carries the run settings the rescoring stage needs.
type Options struct {
	// ScoreThreshold is the minimum tailored score that counts as an
	// acceptable result.
	ScoreThreshold float64
	// APIDelay spaces successive API calls.
	APIDelay time.Duration
}

// Rescorer scores tailored resumes one record at a time.
type Rescorer struct {
	client llm.Client
	opts   Options

	// swapped by tests
	score    func(ctx context.Context, resumeText, description string) (*types.ScoreBreakdown, error)
	loadText func(path string) (string, error)
}

// New builds a Rescorer on top of an LLM client.
func New(client llm.Client, opts Options) *Rescorer {
	r := &Rescorer{client: client, opts: opts}
	r.score = func(ctx context.Context, resumeText, description string) (*types.ScoreBreakdown, error) {
		return analysis.ScoreFit(ctx, r.client, resumeText, description, r.opts.APIDelay)
	}
	r.loadText = loadTailoredText
	return r
}

// Rescore reads the record's tailored resume, scores it against the job
// description with the shared fit rubric, and writes the outcome status:
// improved or maintained when the tailored score clears the threshold,
// needs-re-tailoring when it does not. Failures are absorbed into the record
// status; the returned error is reserved for context cancellation.
func (r *Rescorer) Rescore(ctx context.Context, rec *types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlPath := strings.TrimSpace(rec.TailoredHTMLPath)
	if htmlPath == "" {
		rec.Status = types.StatusErrorMissingDocument
		rec.Notes = "no tailored HTML path on record"
		return nil
	}
	if _, err := os.Stat(htmlPath); err != nil {
		rec.Status = types.StatusErrorMissingDocument
		rec.Notes = fmt.Sprintf("tailored HTML missing: %v", err)
		return nil
	}

	desc := strings.TrimSpace(rec.Description)
	if len(desc) < minDescriptionLength {
		rec.Status = types.StatusErrorMissingData
		rec.Notes = fmt.Sprintf("job description too short (%d chars)", len(desc))
		return nil
	}

	// Without a base score there is nothing to compare the rescore
	// against.
	if rec.TotalScore <= 0 {
		rec.Status = types.StatusErrorScoreCompare
		rec.Notes = "original total score missing"
		return nil
	}

	text, err := r.loadText(htmlPath)
	if err != nil {
		rec.Status = types.StatusErrorFileAccess
		rec.Notes = fmt.Sprintf("tailored HTML read failed: %v", err)
		return nil
	}

	scores, err := r.score(ctx, text, desc)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rec.Status, rec.Notes = failure(err, types.StatusErrorRescore, "rescore")
		return nil
	}

	rec.TailoredScore = scores.Total()
	rec.ScoreDelta = rec.TailoredScore - rec.TotalScore
	rec.Status = Evaluate(rec.TailoredScore, rec.TotalScore, r.opts.ScoreThreshold)
	rec.Notes = ""
	return nil
}

// Evaluate maps a tailored score onto the outcome status. At or above the
// threshold the tailoring is accepted: improved when the score went up,
// maintained otherwise. Below the threshold the record cycles back for
// re-tailoring.
func Evaluate(tailored, original, threshold float64) types.Status {
	if tailored < threshold {
		return types.StatusNeedsRetail
	}
	if tailored > original {
		return types.StatusImproved
	}
	return types.StatusMaintained
}

// failure maps an AI call failure onto a record status and note. Auth
// failures override the stage-specific status.
func failure(err error, status types.Status, op string) (types.Status, string) {
	if llm.IsAuth(err) {
		status = types.StatusErrorAPIAuth
	}
	return status, fmt.Sprintf("%s failed: %v", op, err)
}

// loadTailoredText reads a tailored HTML document and extracts its text the
// same way the base resume is extracted.
func loadTailoredText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := resume.Text(string(data))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return text, nil
}
