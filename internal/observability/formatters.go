// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/job-pipeline/internal/types"
	"github.com/jonathan/job-pipeline/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRecord outputs the scraped job details for one record.
func (p *Printer) PrintRecord(rec *types.Record) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", rec.Title))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", rec.Company))
	if rec.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", rec.Location))
	}
	if rec.PostedAge != "" {
		posted := rec.PostedAge
		if rec.Promoted {
			posted += " (promoted)"
		}
		sb.WriteString(fmt.Sprintf("Posted:   %s\n", posted))
	}

	if desc := strings.Join(strings.Fields(rec.Description), " "); desc != "" {
		sb.WriteString("\nDescription:\n")
		if len(desc) > 100 {
			desc = desc[:97] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %s\n", desc))
	}

	if len(rec.Contacts) > 0 {
		sb.WriteString(fmt.Sprintf("\nContacts: %s\n", strings.Join(rec.Contacts, ", ")))
	}

	p.printBox("JOB DETAILS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScores outputs the fit analysis for one record: the four counted
// sub-scores, the informational structure score, and the feedback lists.
func (p *Printer) PrintScores(rec *types.Record) {
	if rec == nil || rec.Scores == nil {
		return
	}
	scores := rec.Scores

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total score: %.2f / 4.00\n\n", rec.TotalScore))
	sb.WriteString(fmt.Sprintf("  Keyword match:    %.2f\n", scores.Keyword))
	sb.WriteString(fmt.Sprintf("  Achievements:     %.2f\n", scores.Achievements))
	sb.WriteString(fmt.Sprintf("  Summary quality:  %.2f\n", scores.SummaryQuality))
	sb.WriteString(fmt.Sprintf("  Tools and certs:  %.2f\n", scores.ToolsCerts))
	sb.WriteString(fmt.Sprintf("  Structure:        %.2f (not in total)\n", scores.Structure))

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", title))
		count := min(len(items), maxItemsToShow)
		for i := 0; i < count; i++ {
			item := items[i]
			if len(item) > 50 {
				item = item[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", item))
		}
		if len(items) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
		}
	}
	writeList("Strengths", scores.Strengths)
	writeList("Areas for improvement", scores.Areas)
	writeList("Recommendations", scores.Recommendations)

	p.printBox("AI FIT ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTailoring outputs the artifacts produced for one record.
func (p *Printer) PrintTailoring(rec *types.Record) {
	if rec == nil || (rec.TailoredHTMLPath == "" && rec.TailoredSummary == "") {
		return
	}

	var sb strings.Builder
	if summary := rec.TailoredSummary; summary != "" {
		if len(summary) > 100 {
			summary = summary[:97] + "..."
		}
		sb.WriteString(fmt.Sprintf("Summary: %s\n\n", summary))
	}
	if rec.TailoredHTMLPath != "" {
		sb.WriteString(fmt.Sprintf("HTML:  %s\n", rec.TailoredHTMLPath))
	}
	if rec.TailoredPDFPath != "" {
		sb.WriteString(fmt.Sprintf("PDF:   %s\n", rec.TailoredPDFPath))
	}
	if rec.PageCount > 0 {
		sb.WriteString(fmt.Sprintf("Pages: %d\n", rec.PageCount))
	}
	if rec.RetailoringAttempts > 0 {
		sb.WriteString(fmt.Sprintf("Re-tailoring rounds: %d\n", rec.RetailoringAttempts))
	}

	p.printBox("TAILORED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRescore outputs the before/after comparison for one record.
func (p *Printer) PrintRescore(rec *types.Record) {
	if rec == nil || rec.TailoredScore == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Original score: %.2f\n", rec.TotalScore))
	sb.WriteString(fmt.Sprintf("Tailored score: %.2f\n", rec.TailoredScore))
	sb.WriteString(fmt.Sprintf("Delta:          %+.2f\n\n", rec.ScoreDelta))
	sb.WriteString(fmt.Sprintf("Outcome: %s", rec.Status))

	p.printBox("RESCORE RESULT", sb.String())
}

// PrintRunSummary outputs the closing report for one pipeline run.
func (p *Printer) PrintRunSummary(sum *workflow.Summary) {
	if sum == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", sum.RunID))
	sb.WriteString(fmt.Sprintf("Elapsed: %s\n\n", sum.Elapsed.Round(time.Second)))

	for _, stage := range types.Stages() {
		dur, ran := sum.Durations[stage]
		if !ran {
			continue
		}
		line := fmt.Sprintf("%-10s %8s", stage, dur.Round(100*time.Millisecond))
		if stage == types.StageDiscovery {
			line += fmt.Sprintf("   %d new, %d duplicates", sum.Discovered, sum.Duplicates)
		} else {
			line += fmt.Sprintf("   %d processed", sum.Processed[stage])
			if n := sum.Transitions[stage]; n > 0 {
				line += fmt.Sprintf(", %d gated", n)
			}
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\nStatuses:\n")
	sb.WriteString(statusTable(sum.StatusCounts))

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatusCounts outputs the status histogram of the whole table.
func (p *Printer) PrintStatusCounts(counts map[types.Status]int) {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		p.printBox("RECORD STATUSES", "No records yet.")
		return
	}

	content := statusTable(counts) + fmt.Sprintf("\n%-42s %5d", "Total", total)
	p.printBox("RECORD STATUSES", content)
}

// statusTable lists non-zero statuses in their declaration order.
func statusTable(counts map[types.Status]int) string {
	var sb strings.Builder
	for _, status := range types.AllStatuses() {
		if n := counts[status]; n > 0 {
			sb.WriteString(fmt.Sprintf("%-42s %5d\n", status, n))
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
