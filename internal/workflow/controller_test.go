package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pipeline/internal/types"
)

// fakeStore keeps records in memory and counts the controller's persistence
// calls.
type fakeStore struct {
	records []types.Record

	updates       []types.Record
	inserted      []string
	saveCalls     int
	loadErr       error
	updateErr     error
	saveErr       error
	failNextSaves int
}

func newFakeStore(records ...types.Record) *fakeStore {
	return &fakeStore{records: records}
}

func (f *fakeStore) LoadAll(_ context.Context) ([]types.Record, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]types.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeStore) SaveAll(_ context.Context, records []types.Record) error {
	f.saveCalls++
	if f.failNextSaves > 0 {
		f.failNextSaves--
		return errors.New("connection reset")
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append([]types.Record(nil), records...)
	return nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, rec *types.Record) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, *rec)
	for i := range f.records {
		if f.records[i].JobID == rec.JobID {
			f.records[i] = *rec
			return nil
		}
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeStore) InsertNew(_ context.Context, rec *types.Record) (bool, error) {
	for i := range f.records {
		if f.records[i].Link == rec.Link {
			return false, nil
		}
	}
	f.inserted = append(f.inserted, rec.JobID)
	f.records = append(f.records, *rec)
	return true, nil
}

func newJob(id string, status types.Status) types.Record {
	return types.Record{
		JobID:   id,
		Title:   "Go Developer",
		Company: "Acme Software",
		Link:    "https://www.naukri.com/job-listings-" + id,
		Status:  status,
	}
}

func setStatus(status types.Status) StageFunc {
	return func(_ context.Context, rec *types.Record) error {
		rec.Status = status
		return nil
	}
}

// happyStages drives a record from New all the way to Improved.
func happyStages() Stages {
	return Stages{
		Detail: setStatus(types.StatusReadyForAI),
		Analyze: func(_ context.Context, rec *types.Record) error {
			rec.TotalScore = 3.9
			rec.Status = types.StatusAIAnalyzed
			return nil
		},
		Tailor: setStatus(types.StatusTailored),
		Rescore: func(_ context.Context, rec *types.Record) error {
			rec.TailoredScore = 4.0
			rec.ScoreDelta = rec.TailoredScore - rec.TotalScore
			rec.Status = types.StatusImproved
			return nil
		},
	}
}

func run(t *testing.T, store Store, stages Stages, opts Options) *Summary {
	t.Helper()
	ctrl := NewController(store, NewGate(2.5, 2), stages, opts)
	sum, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	return sum
}

func TestRun_RecordFlowsThroughAllStages(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))

	sum := run(t, store, happyStages(), Options{
		StartStage: types.StageDetail,
		EndStage:   types.StageRescoring,
	})

	require.Len(t, store.records, 1)
	final := store.records[0]
	assert.Equal(t, types.StatusImproved, final.Status)
	assert.InDelta(t, 3.9, final.TotalScore, 1e-9)
	assert.InDelta(t, 0.1, final.ScoreDelta, 1e-9)

	for _, stage := range []types.Stage{
		types.StageDetail, types.StageAnalysis, types.StageTailoring, types.StageRescoring,
	} {
		assert.Equal(t, 1, sum.Processed[stage], "processed count for %s", stage)
		assert.Contains(t, sum.Durations, stage)
	}
	assert.Equal(t, 4, sum.TotalProcessed())
	assert.Equal(t, 1, sum.StatusCounts[types.StatusImproved])
}

func TestRun_SecondRunIsANoOp(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))
	opts := Options{StartStage: types.StageDetail, EndStage: types.StageRescoring}

	run(t, store, happyStages(), opts)
	updatesAfterFirst := len(store.updates)

	sum := run(t, store, happyStages(), opts)

	assert.Equal(t, updatesAfterFirst, len(store.updates), "terminal record must not be touched again")
	assert.Zero(t, sum.TotalProcessed())
	assert.Equal(t, types.StatusImproved, store.records[0].Status)
}

func TestRun_ResumesFromPersistedStatus(t *testing.T) {
	store := newFakeStore(
		newJob("101", types.StatusImproved),
		newJob("102", types.StatusReadyForAI),
	)
	opts := Options{StartStage: types.StageDetail, EndStage: types.StageRescoring}

	sum := run(t, store, happyStages(), opts)

	assert.Zero(t, sum.Processed[types.StageDetail])
	assert.Equal(t, 1, sum.Processed[types.StageAnalysis])
	assert.Equal(t, types.StatusImproved, store.records[1].Status)
}

func TestRun_CommitsEveryRecordAndCheckpoints(t *testing.T) {
	store := newFakeStore(
		newJob("101", types.StatusNew),
		newJob("102", types.StatusNew),
		newJob("103", types.StatusNew),
	)
	opts := Options{
		StartStage:   types.StageDetail,
		EndStage:     types.StageDetail,
		SaveInterval: 2,
	}

	run(t, store, Stages{Detail: setStatus(types.StatusReadyForAI)}, opts)

	require.Len(t, store.updates, 3)
	for _, up := range store.updates {
		assert.Equal(t, types.StatusReadyForAI, up.Status)
	}
	// One checkpoint after the second record plus the stage-end save.
	assert.Equal(t, 2, store.saveCalls)
}

func TestRun_CheckpointFailureDoesNotHaltTheStage(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))
	store.failNextSaves = 1
	opts := Options{
		StartStage:   types.StageDetail,
		EndStage:     types.StageDetail,
		SaveInterval: 1,
	}

	run(t, store, Stages{Detail: setStatus(types.StatusReadyForAI)}, opts)

	assert.Equal(t, 2, store.saveCalls, "failed checkpoint then successful stage-end save")
	assert.Equal(t, types.StatusReadyForAI, store.records[0].Status)
}

func TestRun_StageEndSaveFailureIsCritical(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))
	store.saveErr = errors.New("connection reset")

	ctrl := NewController(store, NewGate(2.5, 2), Stages{Detail: setStatus(types.StatusReadyForAI)},
		Options{StartStage: types.StageDetail, EndStage: types.StageDetail})
	sum, err := ctrl.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "detail stage")
	assert.Contains(t, err.Error(), "final save")
	require.NotNil(t, sum)
	assert.Contains(t, sum.Durations, types.StageDetail)
}

func TestRun_GateTransitionIsCommittedWithoutRunningTheBody(t *testing.T) {
	rec := newJob("101", types.StatusAIAnalyzed)
	rec.TotalScore = 1.5
	store := newFakeStore(rec)

	bodyCalls := 0
	stages := Stages{Tailor: func(_ context.Context, r *types.Record) error {
		bodyCalls++
		return nil
	}}
	sum := run(t, store, stages, Options{
		StartStage: types.StageTailoring,
		EndStage:   types.StageTailoring,
	})

	assert.Zero(t, bodyCalls)
	assert.Equal(t, 1, sum.Transitions[types.StageTailoring])
	assert.Zero(t, sum.Processed[types.StageTailoring])

	require.Len(t, store.updates, 1)
	assert.Equal(t, types.StatusSkippedLowScore, store.updates[0].Status)
	assert.Contains(t, store.updates[0].Notes, "below threshold")
}

func TestRun_CycleEdgeIncrementsAttemptsBeforeTheBody(t *testing.T) {
	rec := newJob("101", types.StatusNeedsRetail)
	rec.TotalScore = 3.0
	store := newFakeStore(rec)

	var seenAttempts int
	stages := Stages{Tailor: func(_ context.Context, r *types.Record) error {
		seenAttempts = r.RetailoringAttempts
		r.Status = types.StatusTailored
		return nil
	}}
	run(t, store, stages, Options{
		StartStage: types.StageTailoring,
		EndStage:   types.StageTailoring,
	})

	assert.Equal(t, 1, seenAttempts)
	assert.Equal(t, 1, store.records[0].RetailoringAttempts)
}

func TestRun_CycleExhaustsAfterMaxAttempts(t *testing.T) {
	rec := newJob("101", types.StatusTailored)
	rec.TotalScore = 3.0
	store := newFakeStore(rec)

	// Tailoring always produces a resume and rescoring always sends it back.
	stages := Stages{
		Tailor:  setStatus(types.StatusTailored),
		Rescore: setStatus(types.StatusNeedsRetail),
	}
	opts := Options{StartStage: types.StageTailoring, EndStage: types.StageRescoring}

	// Run 1 rescores to NeedsRetail; runs 2 and 3 burn the two allowed
	// re-tailoring attempts; run 4 forecloses at the gate.
	for i := 0; i < 3; i++ {
		run(t, store, stages, opts)
	}
	assert.Equal(t, types.StatusNeedsRetail, store.records[0].Status)
	assert.Equal(t, 2, store.records[0].RetailoringAttempts)

	sum := run(t, store, stages, opts)

	final := store.records[0]
	assert.Equal(t, types.StatusErrorAttemptsExhausted, final.Status)
	assert.Equal(t, 2, final.RetailoringAttempts)
	assert.Contains(t, final.Notes, "maximum")
	assert.Equal(t, 1, sum.Transitions[types.StageTailoring])
	assert.True(t, final.Status.IsTerminal())
}

func TestRun_DiscoveryInsertsNewAndCountsDuplicates(t *testing.T) {
	existing := newJob("100", types.StatusNew)
	store := newFakeStore(existing)

	var sawExisting int
	discover := func(_ context.Context, current []types.Record) ([]types.Record, int, error) {
		sawExisting = len(current)
		return []types.Record{
			newJob("101", types.StatusNew),
			newJob("100", types.StatusNew),
		}, 3, nil
	}
	detailSeen := []string{}
	stages := Stages{
		Discover: discover,
		Detail: func(_ context.Context, rec *types.Record) error {
			detailSeen = append(detailSeen, rec.JobID)
			rec.Status = types.StatusReadyForAI
			return nil
		},
	}

	sum := run(t, store, stages, Options{
		StartStage: types.StageDiscovery,
		EndStage:   types.StageDetail,
	})

	assert.Equal(t, 1, sawExisting)
	assert.Equal(t, 1, sum.Discovered)
	// Three duplicates reported by the scraper plus one rejected insert.
	assert.Equal(t, 4, sum.Duplicates)
	assert.Equal(t, []string{"101"}, store.inserted)
	// The record inserted this run is visible to the very next stage.
	assert.Equal(t, []string{"100", "101"}, detailSeen)
}

func TestRun_DiscoveryFailureHaltsLaterStages(t *testing.T) {
	store := newFakeStore(newJob("100", types.StatusNew))

	detailCalls := 0
	stages := Stages{
		Discover: func(_ context.Context, _ []types.Record) ([]types.Record, int, error) {
			return nil, 0, errors.New("listing page timed out")
		},
		Detail: func(_ context.Context, rec *types.Record) error {
			detailCalls++
			return nil
		},
	}

	ctrl := NewController(store, NewGate(2.5, 2), stages, Options{
		StartStage: types.StageDiscovery,
		EndStage:   types.StageDetail,
	})
	sum, err := ctrl.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery stage")
	assert.Contains(t, err.Error(), "listing scrape")
	assert.Zero(t, detailCalls)
	require.NotNil(t, sum)
	assert.NotContains(t, sum.Durations, types.StageDetail)
}

func TestRun_StageRangeIsHonored(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))

	detailCalls := 0
	stages := Stages{
		Detail: func(_ context.Context, rec *types.Record) error {
			detailCalls++
			rec.Status = types.StatusReadyForAI
			return nil
		},
		Analyze: setStatus(types.StatusAIAnalyzed),
	}
	sum := run(t, store, stages, Options{
		StartStage: types.StageAnalysis,
		EndStage:   types.StageRescoring,
	})

	assert.Zero(t, detailCalls, "detail is before the configured range")
	assert.Zero(t, sum.TotalProcessed(), "a New record is not eligible past detail")
	assert.Equal(t, types.StatusNew, store.records[0].Status)
}

func TestRun_RetryFlagReadmitsErrorStatus(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusErrorDetailScrape))
	stages := Stages{Detail: setStatus(types.StatusReadyForAI)}
	opts := Options{StartStage: types.StageDetail, EndStage: types.StageDetail}

	sum := run(t, store, stages, opts)
	assert.Zero(t, sum.TotalProcessed(), "error status stays put without the flag")

	opts.Retry = map[types.Stage]bool{types.StageDetail: true}
	sum = run(t, store, stages, opts)

	assert.Equal(t, 1, sum.Processed[types.StageDetail])
	assert.Equal(t, types.StatusReadyForAI, store.records[0].Status)
}

func TestRun_LoadFailure(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("connection refused")

	ctrl := NewController(store, NewGate(2.5, 2), happyStages(), Options{})
	_, err := ctrl.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading records")
}

func TestRun_UpdateFailureIsCritical(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))
	store.updateErr = errors.New("connection reset")

	ctrl := NewController(store, NewGate(2.5, 2), Stages{Detail: setStatus(types.StatusReadyForAI)},
		Options{StartStage: types.StageDetail, EndStage: types.StageDetail})
	_, err := ctrl.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing job 101")
}

func TestRun_CancelledContextStopsBetweenRecords(t *testing.T) {
	store := newFakeStore(newJob("101", types.StatusNew))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := NewController(store, NewGate(2.5, 2), Stages{Detail: setStatus(types.StatusReadyForAI)},
		Options{StartStage: types.StageDetail, EndStage: types.StageDetail})
	_, err := ctrl.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.updates)
}

func TestNewController_Defaults(t *testing.T) {
	ctrl := NewController(newFakeStore(), NewGate(2.5, 2), Stages{}, Options{})

	assert.Equal(t, types.StageDiscovery, ctrl.opts.StartStage)
	assert.Equal(t, types.StageRescoring, ctrl.opts.EndStage)
	assert.Equal(t, 1, ctrl.opts.SaveInterval)
}
