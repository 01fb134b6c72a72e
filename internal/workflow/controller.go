package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/types"
)

// Store is the persistence surface the controller drives. *store.Store
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	// LoadAll returns every record ordered by creation time.
	LoadAll(ctx context.Context) ([]types.Record, error)
	// SaveAll replaces the whole table with records in one transaction.
	SaveAll(ctx context.Context, records []types.Record) error
	// UpdateRecord commits a single record's current state.
	UpdateRecord(ctx context.Context, rec *types.Record) error
	// InsertNew appends a record unless its job identifier is already
	// present, reporting whether a row was written.
	InsertNew(ctx context.Context, rec *types.Record) (bool, error)
}

// DiscoverFunc scrapes the job board and returns candidate records plus the
// number of listing cards skipped as duplicates of existing records.
type DiscoverFunc func(ctx context.Context, existing []types.Record) ([]types.Record, int, error)

// StageFunc runs one stage body over one record, mutating its fields, status
// and notes in place. The returned error is reserved for context
// cancellation; every other failure becomes a status on the record.
type StageFunc func(ctx context.Context, rec *types.Record) error

// Stages bundles the five stage bodies the controller sequences.
type Stages struct {
	Discover DiscoverFunc
	Detail   StageFunc
	Analyze  StageFunc
	Tailor   StageFunc
	Rescore  StageFunc
}

// Options carries the controller's slice of the run configuration.
type Options struct {
	// StartStage and EndStage bound the run, inclusive.
	StartStage types.Stage
	EndStage   types.Stage

	// Retry re-admits a stage's error statuses through the gate.
	Retry map[types.Stage]bool

	// SaveInterval is the number of processed records between checkpoint
	// saves of the whole table.
	SaveInterval int

	// APIDelay spaces successive records through the AI stages.
	APIDelay time.Duration

	Verbose bool
}

// Controller sequences the five stages over the record table. Records are
// processed one at a time; each record's status and notes are committed as
// soon as its stage body returns, so an interrupted run loses at most the
// in-flight record.
type Controller struct {
	store  Store
	gate   Gate
	stages Stages
	opts   Options

	records []types.Record
}

// NewController builds a controller. A zero stage range widens to the full
// pipeline and a save interval below one checkpoints after every record.
func NewController(store Store, gate Gate, stages Stages, opts Options) *Controller {
	if !opts.StartStage.Valid() {
		opts.StartStage = types.StageDiscovery
	}
	if !opts.EndStage.Valid() {
		opts.EndStage = types.StageRescoring
	}
	if opts.SaveInterval < 1 {
		opts.SaveInterval = 1
	}
	return &Controller{store: store, gate: gate, stages: stages, opts: opts}
}

// stageTitles are the progress-line descriptions, in the register of the
// status strings operators see in the store.
var stageTitles = map[types.Stage]string{
	types.StageDiscovery: "Scraping job listings",
	types.StageDetail:    "Scraping job details",
	types.StageAnalysis:  "Analyzing job fit",
	types.StageTailoring: "Tailoring resumes",
	types.StageRescoring: "Rescoring tailored resumes",
}

// Run executes the configured stage range in order. A stage-level failure
// halts the remaining stages; the returned summary is valid either way, with
// counts and durations for every stage that ran.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	sum := newSummary(c.opts.StartStage, c.opts.EndStage)

	records, err := c.store.LoadAll(ctx)
	if err != nil {
		return sum, fmt.Errorf("loading records: %w", err)
	}
	c.records = records
	fmt.Printf("Run %s: %d records loaded, stages %s through %s\n",
		sum.RunID, len(c.records), c.opts.StartStage, c.opts.EndStage)

	total := len(types.Stages())
	for _, stage := range types.Stages() {
		if stage < c.opts.StartStage || stage > c.opts.EndStage {
			continue
		}
		fmt.Printf("Stage %d/%d: %s...\n", int(stage), total, stageTitles[stage])
		started := time.Now()
		err := c.runStage(ctx, stage, sum)
		sum.Durations[stage] = time.Since(started)
		if err != nil {
			sum.finish(c.records)
			return sum, fmt.Errorf("%s stage: %w", stage, err)
		}
		c.printStageResult(stage, sum)
	}

	sum.finish(c.records)
	return sum, nil
}

func (c *Controller) runStage(ctx context.Context, stage types.Stage, sum *Summary) error {
	if stage == types.StageDiscovery {
		return c.runDiscovery(ctx, sum)
	}
	body := c.bodyFor(stage)
	if body == nil {
		return fmt.Errorf("no stage body wired")
	}

	retry := c.opts.Retry[stage]
	processed := 0
	for i := range c.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := &c.records[i]

		decision := c.gate.Check(rec, stage, retry)
		if decision.Transition != "" {
			rec.Status = decision.Transition
			rec.Notes = decision.Reason
			if err := c.store.UpdateRecord(ctx, rec); err != nil {
				return fmt.Errorf("committing gate transition for job %s: %w", rec.JobID, err)
			}
			sum.Transitions[stage]++
			if c.opts.Verbose {
				fmt.Printf("[VERBOSE] %s -> %q: %s\n", rec.JobID, decision.Transition, decision.Reason)
			}
			continue
		}
		if !decision.Admit {
			continue
		}

		if processed > 0 && paced(stage) {
			if err := llm.Pause(ctx, c.opts.APIDelay); err != nil {
				return err
			}
		}
		if c.opts.Verbose {
			fmt.Printf("[VERBOSE] %s: %s at %s\n", stage, rec.Title, rec.Company)
		}

		// The cycle edge consumes an attempt whether or not the stage body
		// succeeds, so a failing record cannot loop forever.
		if decision.Retailoring {
			rec.RetailoringAttempts++
		}
		if err := body(ctx, rec); err != nil {
			return err
		}
		if err := c.store.UpdateRecord(ctx, rec); err != nil {
			return fmt.Errorf("committing job %s: %w", rec.JobID, err)
		}
		processed++
		sum.Processed[stage]++

		if processed%c.opts.SaveInterval == 0 {
			if err := c.store.SaveAll(ctx, c.records); err != nil {
				fmt.Printf("Warning: checkpoint save failed: %v\n", err)
			}
		}
	}

	if err := c.store.SaveAll(ctx, c.records); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}

func (c *Controller) runDiscovery(ctx context.Context, sum *Summary) error {
	if c.stages.Discover == nil {
		return fmt.Errorf("no stage body wired")
	}
	found, duplicates, err := c.stages.Discover(ctx, c.records)
	if err != nil {
		return fmt.Errorf("listing scrape: %w", err)
	}
	sum.Duplicates += duplicates

	for i := range found {
		rec := &found[i]
		inserted, err := c.store.InsertNew(ctx, rec)
		if err != nil {
			return fmt.Errorf("inserting job %s: %w", rec.JobID, err)
		}
		if !inserted {
			// Another card in the same run resolved to this link first.
			sum.Duplicates++
			continue
		}
		c.records = append(c.records, *rec)
		sum.Discovered++
	}
	return nil
}

func (c *Controller) bodyFor(stage types.Stage) StageFunc {
	switch stage {
	case types.StageDetail:
		return c.stages.Detail
	case types.StageAnalysis:
		return c.stages.Analyze
	case types.StageTailoring:
		return c.stages.Tailor
	case types.StageRescoring:
		return c.stages.Rescore
	}
	return nil
}

func (c *Controller) printStageResult(stage types.Stage, sum *Summary) {
	d := sum.Durations[stage].Round(10 * time.Millisecond)
	if stage == types.StageDiscovery {
		fmt.Printf("  Added %d new jobs, skipped %d duplicates (%s)\n",
			sum.Discovered, sum.Duplicates, d)
		return
	}
	fmt.Printf("  Processed %d records, %d gate transitions (%s)\n",
		sum.Processed[stage], sum.Transitions[stage], d)
}

// paced reports whether a stage calls the AI once per record and therefore
// needs spacing between successive admitted records.
func paced(stage types.Stage) bool {
	switch stage {
	case types.StageAnalysis, types.StageTailoring, types.StageRescoring:
		return true
	}
	return false
}
