// Package workflow implements the per-record state machine: the stage gate
// that decides eligibility from a record's status, and the controller that
// sequences the five stages over the whole table.
package workflow

import (
	"fmt"

	"github.com/jonathan/job-pipeline/internal/types"
)

// entryStatuses maps each stage to the statuses that admit a record through
// the normal forward edges. Discovery creates records and has no entry.
var entryStatuses = map[types.Stage][]types.Status{
	types.StageDetail:    {types.StatusNew},
	types.StageAnalysis:  {types.StatusReadyForAI},
	types.StageTailoring: {types.StatusAIAnalyzed, types.StatusNeedsRetail},
	types.StageRescoring: {types.StatusTailored, types.StatusNeedsEdit},
}

// retryStatuses maps each stage to the error statuses a retry flag re-admits.
// The terminal SkippedLowScore and ErrorAttemptsExhausted states are absent
// on purpose: no flag reopens them.
var retryStatuses = map[types.Stage][]types.Status{
	types.StageDetail: {
		types.StatusErrorInvalidLink,
		types.StatusErrorDetailScrape,
		types.StatusErrorConnection,
		types.StatusErrorMissingData,
	},
	types.StageAnalysis: {
		types.StatusErrorExtraction,
		types.StatusErrorAnalysis,
		types.StatusErrorAPIAuth,
	},
	types.StageTailoring: {
		types.StatusErrorTailoring,
		types.StatusErrorHTMLEdit,
		types.StatusErrorRender,
		types.StatusErrorFileAccess,
	},
	types.StageRescoring: {
		types.StatusErrorRescore,
		types.StatusErrorMissingDocument,
		types.StatusErrorScoreCompare,
	},
}

// EntryStatuses returns the normal entry statuses for a stage.
func EntryStatuses(stage types.Stage) []types.Status {
	out := make([]types.Status, len(entryStatuses[stage]))
	copy(out, entryStatuses[stage])
	return out
}

// RetryStatuses returns the error statuses a retry flag re-admits for a stage.
func RetryStatuses(stage types.Stage) []types.Status {
	out := make([]types.Status, len(retryStatuses[stage]))
	copy(out, retryStatuses[stage])
	return out
}

// Gate is the pure eligibility predicate. It holds only the two tailoring
// thresholds it needs; it performs no I/O and never mutates a record.
type Gate struct {
	ScoreThreshold         float64
	MaxRetailoringAttempts int
}

// NewGate builds a gate with the given tailoring thresholds.
func NewGate(scoreThreshold float64, maxRetailoringAttempts int) Gate {
	return Gate{
		ScoreThreshold:         scoreThreshold,
		MaxRetailoringAttempts: maxRetailoringAttempts,
	}
}

// Decision is the outcome of one eligibility check.
type Decision struct {
	// Admit is true when the stage body should run for this record.
	Admit bool

	// Retailoring marks admissions through the NeedsRetailoring cycle edge,
	// the only path on which the controller increments the record's attempt
	// counter before running the stage body.
	Retailoring bool

	// Transition, when non-empty, is a gate-caused status write: the record
	// is foreclosed from the stage and moves directly to this status. The
	// stage body never runs.
	Transition types.Status

	// Reason explains a refusal or transition for the record's notes.
	Reason string
}

// Check decides whether a record may enter a stage. The general rule admits
// on the stage's entry status or, when retry is set, on one of its error
// statuses. Tailoring carries two extra guards that foreclose the record
// with a status write instead of admitting it: the score threshold and, on
// the cycle edge only, the re-tailoring attempt cap.
func (g Gate) Check(rec *types.Record, stage types.Stage, retry bool) Decision {
	if !statusIn(rec.Status, entryStatuses[stage]) &&
		!(retry && statusIn(rec.Status, retryStatuses[stage])) {
		return Decision{
			Reason: fmt.Sprintf("status %q is not eligible for %s", rec.Status, stage),
		}
	}

	if stage != types.StageTailoring {
		return Decision{Admit: true}
	}

	if rec.TotalScore < g.ScoreThreshold {
		return Decision{
			Transition: types.StatusSkippedLowScore,
			Reason: fmt.Sprintf("total score %.2f below threshold %.2f",
				rec.TotalScore, g.ScoreThreshold),
		}
	}

	// The cycle edge NeedsRetailoring -> Tailoring is guarded here, next to
	// the transition that closes it, so the attempt cap cannot drift apart
	// from the admission it bounds.
	if rec.Status == types.StatusNeedsRetail {
		if rec.RetailoringAttempts >= g.MaxRetailoringAttempts {
			return Decision{
				Transition: types.StatusErrorAttemptsExhausted,
				Reason: fmt.Sprintf("re-tailoring attempts %d reached the maximum %d",
					rec.RetailoringAttempts, g.MaxRetailoringAttempts),
			}
		}
		return Decision{Admit: true, Retailoring: true}
	}

	return Decision{Admit: true}
}

func statusIn(status types.Status, set []types.Status) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}
