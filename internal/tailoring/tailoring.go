// Package tailoring implements the resume tailoring stage: a bounded loop of
// AI content generation, HTML editing, and PDF rendering that targets a
// one-page document. Every attempt edits a fresh copy of the base template;
// condensation rounds shrink the generated content, not the document.
package tailoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/prompts"
	"github.com/jonathan/job-pipeline/internal/rendering"
	"github.com/jonathan/job-pipeline/internal/schemas"
	"github.com/jonathan/job-pipeline/internal/types"
)

const (
	// minDescriptionLength is the shortest job description worth tailoring
	// against.
	minDescriptionLength = 50

	// promptFile holds the generation and condensation prompt templates.
	promptFile = "tailoring.json"

	// defaultRenderTimeout bounds one headless Chrome render.
	defaultRenderTimeout = 60 * time.Second
)

// Options carries the run settings the tailoring stage needs.
type Options struct {
	// ResumeText is the extracted text of the base resume, given to the
	// model as context.
	ResumeText string
	// BaseHTML is the raw base resume template. Every attempt edits a
	// fresh copy of it.
	BaseHTML string
	// OutputDir receives the tailored HTML and PDF files.
	OutputDir string
	// MaxAttempts bounds the generate/condense loop. Values below 1 are
	// treated as 1.
	MaxAttempts int
	// APIDelay spaces successive API calls.
	APIDelay time.Duration
	// RenderTimeout bounds one PDF render. Zero means a 60s default.
	RenderTimeout time.Duration
	// Verbose turns on render progress logging.
	Verbose bool
}

// Tailorer drives the tailoring loop for one record at a time.
type Tailorer struct {
	client llm.Client
	opts   Options

	// swapped by tests
	generate   func(ctx context.Context, prompt string) (*types.TailoredContent, error)
	renderPDF  func(ctx context.Context, htmlPath, pdfPath string) error
	countPages func(pdfPath string) (int, error)
}

// New builds a Tailorer on top of an LLM client.
func New(client llm.Client, opts Options) *Tailorer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = defaultRenderTimeout
	}
	t := &Tailorer{client: client, opts: opts}
	t.generate = t.generateContent
	t.renderPDF = func(ctx context.Context, htmlPath, pdfPath string) error {
		return rendering.RenderPDF(ctx, htmlPath, pdfPath, opts.RenderTimeout, opts.Verbose)
	}
	t.countPages = rendering.CountPages
	return t
}

// Tailor runs the bounded tailoring loop for one record. Attempt one
// generates fresh content (seeded with the previous attempt's content when
// the record came back for re-tailoring); attempt two asks for minor
// condensation and later attempts for aggressive condensation, both fed the
// last generated content. Each round edits the base template, renders it,
// and accepts the result when the PDF is one page. When all attempts
// overflow, one education bullet is trimmed from the last rendered document
// as a final measure.
//
// Failures are absorbed into the record status; the returned error is
// reserved for context cancellation.
func (t *Tailorer) Tailor(ctx context.Context, rec *types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	desc := strings.TrimSpace(rec.Description)
	if len(desc) < minDescriptionLength {
		rec.Status = types.StatusErrorMissingData
		rec.Notes = fmt.Sprintf("job description too short (%d chars)", len(desc))
		return nil
	}

	retailoring := rec.Status == types.StatusNeedsRetail
	htmlPath, pdfPath := rendering.ArtifactPaths(t.opts.OutputDir, rec.Company, rec.Title, rec.JobID)

	var content *types.TailoredContent
	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		prompt, err := t.buildPrompt(attempt, retailoring, rec, content)
		if err != nil {
			rec.Status = types.StatusErrorTailoring
			rec.Notes = fmt.Sprintf("tailoring attempt %d failed: %v", attempt, err)
			return nil
		}

		next, err := t.generate(ctx, prompt)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			rec.Status, rec.Notes = failure(err, types.StatusErrorTailoring, fmt.Sprintf("tailoring attempt %d", attempt))
			return nil
		}
		content = next
		persistContent(rec, content)

		edited, changed, err := ApplyContent(t.opts.BaseHTML, content)
		if err != nil {
			rec.Status = types.StatusErrorHTMLEdit
			rec.Notes = fmt.Sprintf("tailoring attempt %d failed: %v", attempt, err)
			return nil
		}
		if !changed {
			rec.Status = types.StatusErrorHTMLEdit
			rec.Notes = fmt.Sprintf("tailoring attempt %d: generated content matched no resume section", attempt)
			return nil
		}

		if err := rendering.WriteHTML(htmlPath, edited); err != nil {
			rec.Status = types.StatusErrorFileAccess
			rec.Notes = fmt.Sprintf("tailoring attempt %d failed: %v", attempt, err)
			return nil
		}
		rec.TailoredHTMLPath = htmlPath

		if err := t.renderPDF(ctx, htmlPath, pdfPath); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			rec.Status = types.StatusErrorRender
			rec.Notes = fmt.Sprintf("tailoring attempt %d failed: %v", attempt, err)
			return nil
		}
		rec.TailoredPDFPath = pdfPath

		pages, err := t.countPages(pdfPath)
		if err != nil {
			rec.Status = types.StatusErrorRender
			rec.Notes = fmt.Sprintf("tailoring attempt %d failed: %v", attempt, err)
			return nil
		}
		rec.PageCount = pages

		if pages == 1 {
			rec.Status = types.StatusTailored
			rec.Notes = ""
			return nil
		}
		if pages < 1 {
			rec.Status = types.StatusErrorRender
			rec.Notes = fmt.Sprintf("tailoring attempt %d: PDF reports %d pages", attempt, pages)
			return nil
		}

		if attempt < t.opts.MaxAttempts {
			if err := llm.Pause(ctx, t.opts.APIDelay); err != nil {
				return err
			}
		}
	}

	return t.finalTrim(ctx, rec, htmlPath, pdfPath)
}

// finalTrim removes the last education bullet from the rendered document and
// re-renders once. It runs only after every condensation attempt produced a
// multi-page PDF.
func (t *Tailorer) finalTrim(ctx context.Context, rec *types.Record, htmlPath, pdfPath string) error {
	current, err := os.ReadFile(htmlPath)
	if err != nil {
		rec.Status = types.StatusErrorFileAccess
		rec.Notes = fmt.Sprintf("final trim failed: %v", err)
		return nil
	}

	trimmed, removed, err := RemoveLastEducationBullet(string(current))
	if err != nil {
		rec.Status = types.StatusErrorTailoring
		rec.Notes = fmt.Sprintf("final trim failed: %v", err)
		return nil
	}
	if !removed {
		rec.Status = types.StatusNeedsEdit
		rec.Notes = fmt.Sprintf("resume is %d pages and has no education bullet left to trim", rec.PageCount)
		return nil
	}

	if err := rendering.WriteHTML(htmlPath, trimmed); err != nil {
		rec.Status = types.StatusErrorFileAccess
		rec.Notes = fmt.Sprintf("final trim failed: %v", err)
		return nil
	}
	if err := t.renderPDF(ctx, htmlPath, pdfPath); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rec.Status = types.StatusErrorRender
		rec.Notes = fmt.Sprintf("final trim failed: %v", err)
		return nil
	}
	pages, err := t.countPages(pdfPath)
	if err != nil {
		rec.Status = types.StatusErrorRender
		rec.Notes = fmt.Sprintf("final trim failed: %v", err)
		return nil
	}
	rec.PageCount = pages

	if pages == 1 {
		rec.Status = types.StatusTailored
		rec.Notes = ""
		return nil
	}
	rec.Status = types.StatusNeedsEdit
	rec.Notes = fmt.Sprintf("resume is %d pages after final trim", pages)
	return nil
}

// buildPrompt selects and fills the prompt template for one attempt.
func (t *Tailorer) buildPrompt(attempt int, retailoring bool, rec *types.Record, previous *types.TailoredContent) (string, error) {
	if attempt == 1 {
		if retailoring {
			tmpl, err := prompts.Get(promptFile, "generate-retailoring")
			if err != nil {
				return "", err
			}
			return prompts.Format(tmpl, map[string]string{
				"JobDescription":  rec.Description,
				"Recommendations": recommendations(rec),
				"PreviousContent": previousContentText(rec),
				"BaseResumeText":  t.opts.ResumeText,
			}), nil
		}
		tmpl, err := prompts.Get(promptFile, "generate")
		if err != nil {
			return "", err
		}
		return prompts.Format(tmpl, map[string]string{
			"BaseResumeText":  t.opts.ResumeText,
			"JobDescription":  rec.Description,
			"Recommendations": recommendations(rec),
		}), nil
	}

	key := "condense-minor"
	if attempt > 2 {
		key = "condense-major"
	}
	tmpl, err := prompts.Get(promptFile, key)
	if err != nil {
		return "", err
	}
	return prompts.Format(tmpl, map[string]string{
		"PreviousContent": contentJSON(previous),
	}), nil
}

// generateContent asks the model for tailored content and validates the
// response before accepting it.
func (t *Tailorer) generateContent(ctx context.Context, prompt string) (*types.TailoredContent, error) {
	raw, err := llm.CallWithRetry(ctx, llm.DefaultRetryAttempts, t.opts.APIDelay, func() (string, error) {
		return t.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	})
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.TailoredContent, raw); err != nil {
		return nil, &ResponseError{Message: "tailored content failed validation", Raw: raw, Cause: err}
	}

	var content types.TailoredContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, &ResponseError{Message: "tailored content is not valid JSON", Raw: raw, Cause: err}
	}
	return &content, nil
}

// failure maps an AI call failure onto a record status and note. Auth
// failures override the stage-specific status.
func failure(err error, status types.Status, op string) (types.Status, string) {
	if llm.IsAuth(err) {
		status = types.StatusErrorAPIAuth
	}
	return status, fmt.Sprintf("%s failed: %v", op, err)
}

// persistContent flattens generated content onto the record so a later
// re-tailoring round can show the model what it produced before.
func persistContent(rec *types.Record, content *types.TailoredContent) {
	rec.TailoredSummary = stripTags(content.Summary)

	bullets := make([]string, 0, len(content.Bullets))
	for _, bullet := range content.Bullets {
		if text := stripTags(bullet); text != "" {
			bullets = append(bullets, text)
		}
	}
	rec.TailoredBullets = strings.Join(bullets, "\n")

	names := make([]string, 0, len(content.SkillCategories))
	for name := range content.SkillCategories {
		names = append(names, name)
	}
	sort.Strings(names)
	var lines []string
	for _, name := range names {
		for _, skill := range content.SkillCategories[name] {
			if text := stripTags(skill); text != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", name, text))
			}
		}
	}
	rec.TailoredSkills = strings.Join(lines, "\n")
}

// previousContentText assembles the re-tailoring seed from the flattened
// fields persisted by the previous round.
func previousContentText(rec *types.Record) string {
	return fmt.Sprintf("PREVIOUS SUMMARY:\n%s\n\nPREVIOUS BULLETS:\n%s\n\nPREVIOUS SKILLS:\n%s",
		orNA(rec.TailoredSummary), orNA(rec.TailoredBullets), orNA(rec.TailoredSkills))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// contentJSON renders the last generated content for a condensation prompt.
// HTML escaping is off so <strong> tags stay readable to the model.
func contentJSON(content *types.TailoredContent) string {
	if content == nil {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(content); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}

// recommendations joins the analysis stage's actionable recommendations for
// use as prompt context.
func recommendations(rec *types.Record) string {
	if rec.Scores == nil || len(rec.Scores.Recommendations) == 0 {
		return "N/A"
	}
	return strings.Join(rec.Scores.Recommendations, "\n")
}
