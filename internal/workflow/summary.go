package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-pipeline/internal/types"
)

// Summary aggregates one pipeline run for the final report and the optional
// notification message.
type Summary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	Elapsed    time.Duration
	StartStage types.Stage
	EndStage   types.Stage

	// Discovered counts records inserted by the discovery stage; Duplicates
	// counts listing cards whose link was already in the table.
	Discovered int
	Duplicates int

	// Processed counts records whose stage body ran. Transitions counts
	// gate-caused status writes, where it did not.
	Processed   map[types.Stage]int
	Transitions map[types.Stage]int
	Durations   map[types.Stage]time.Duration

	// StatusCounts is the table's status histogram when the run stopped.
	StatusCounts map[types.Status]int
}

func newSummary(start, end types.Stage) *Summary {
	return &Summary{
		RunID:        uuid.New(),
		StartedAt:    time.Now(),
		StartStage:   start,
		EndStage:     end,
		Processed:    make(map[types.Stage]int),
		Transitions:  make(map[types.Stage]int),
		Durations:    make(map[types.Stage]time.Duration),
		StatusCounts: make(map[types.Status]int),
	}
}

// finish stamps the elapsed time and snapshots the status histogram from the
// controller's in-memory records.
func (s *Summary) finish(records []types.Record) {
	s.Elapsed = time.Since(s.StartedAt)
	s.StatusCounts = make(map[types.Status]int, len(s.StatusCounts))
	for i := range records {
		s.StatusCounts[records[i].Status]++
	}
}

// TotalProcessed sums the per-stage processed counts.
func (s *Summary) TotalProcessed() int {
	total := 0
	for _, n := range s.Processed {
		total += n
	}
	return total
}

// TotalTransitions sums the per-stage gate transition counts.
func (s *Summary) TotalTransitions() int {
	total := 0
	for _, n := range s.Transitions {
		total += n
	}
	return total
}
