package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/types"
)

const testDescription = "We are hiring a senior Go engineer to build distributed ingestion services and own the job pipeline end to end. PostgreSQL and Kubernetes experience required."

const requirementsJSON = `{
	"responsibilities": ["Build distributed ingestion services", "Own the job pipeline end to end"],
	"required_skills": ["golang", "postgres", "Go"],
	"preferred_skills": ["k8s"],
	"experience_level": "Senior",
	"qualifications": ["B.Tech in Computer Science"]
}`

const scoresJSON = `{
	"keyword_match": 0.75,
	"achievements": 1.0,
	"summary_quality": 0.75,
	"tools_certifications": 0.5,
	"structure": 1.0,
	"strengths": ["Strong Go background"],
	"areas_for_improvement": ["No Kubernetes project listed"],
	"recommendations": ["Mention the cluster migration work"]
}`

// fakeClient satisfies llm.Client and routes GenerateJSON through a
// test-supplied function.
type fakeClient struct {
	generateJSON func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.generateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.generateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GetModel(tier llm.ModelTier) string { return "fake-model" }

func (f *fakeClient) Close() error { return nil }

// byTier answers extraction calls with extractResp and scoring calls with
// scoreResp, tracking call counts per tier.
func byTier(t *testing.T, extractResp, scoreResp string, extractErr, scoreErr error, calls map[llm.ModelTier]int) *fakeClient {
	t.Helper()
	return &fakeClient{
		generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			calls[tier]++
			switch tier {
			case llm.TierLite:
				return extractResp, extractErr
			case llm.TierStandard:
				return scoreResp, scoreErr
			default:
				t.Fatalf("unexpected tier %s", tier)
				return "", nil
			}
		},
	}
}

func readyRecord() *types.Record {
	return &types.Record{
		JobID:       "291024500299",
		Title:       "Senior Golang Developer",
		Description: testDescription,
		Status:      types.StatusReadyForAI,
	}
}

func TestAnalyze_Success(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	client := byTier(t, requirementsJSON, scoresJSON, nil, nil, calls)
	a := New(client, Options{ResumeText: "Backend engineer, Go and PostgreSQL."})

	rec := readyRecord()
	err := a.Analyze(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, types.StatusAIAnalyzed, rec.Status)
	assert.Empty(t, rec.Notes)

	require.NotNil(t, rec.Requirements)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, rec.Requirements.RequiredSkills)
	assert.Equal(t, []string{"Kubernetes"}, rec.Requirements.PreferredSkills)
	assert.Equal(t, "Senior", rec.Requirements.ExperienceLevel)
	assert.Len(t, rec.Requirements.Responsibilities, 2)

	require.NotNil(t, rec.Scores)
	assert.InDelta(t, 0.75, rec.Scores.Keyword, 0.001)
	assert.InDelta(t, 1.0, rec.Scores.Structure, 0.001)
	assert.InDelta(t, 3.0, rec.TotalScore, 0.001)

	assert.Equal(t, 1, calls[llm.TierLite])
	assert.Equal(t, 1, calls[llm.TierStandard])
}

func TestAnalyze_StructureExcludedFromTotal(t *testing.T) {
	zeroStructure := strings.Replace(scoresJSON, `"structure": 1.0`, `"structure": 0`, 1)
	calls := make(map[llm.ModelTier]int)
	client := byTier(t, requirementsJSON, zeroStructure, nil, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.InDelta(t, 3.0, rec.TotalScore, 0.001)
}

func TestAnalyze_ShortDescription(t *testing.T) {
	a := New(&fakeClient{generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		t.Fatal("no API call expected for a short description")
		return "", nil
	}}, Options{})

	rec := readyRecord()
	rec.Description = "   too short   "
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorMissingData, rec.Status)
	assert.Contains(t, rec.Notes, "too short (9 chars)")
}

func TestAnalyze_ExtractionAPIError(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	apiErr := &llm.APIError{Kind: llm.KindContentRejected, Message: "blocked"}
	client := byTier(t, "", scoresJSON, apiErr, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorExtraction, rec.Status)
	assert.Contains(t, rec.Notes, "requirement extraction failed")
	assert.Nil(t, rec.Requirements)
	assert.Equal(t, 0, calls[llm.TierStandard], "scoring must not run after extraction failure")
}

func TestAnalyze_ExtractionTransientExhausted(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	apiErr := &llm.APIError{Kind: llm.KindTransient, Message: "resource exhausted"}
	client := byTier(t, "", "", apiErr, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorExtraction, rec.Status)
	assert.Equal(t, llm.DefaultRetryAttempts, calls[llm.TierLite])
}

func TestAnalyze_AuthError(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	apiErr := &llm.APIError{Kind: llm.KindAuth, Message: "API key not valid"}
	client := byTier(t, "", "", apiErr, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorAPIAuth, rec.Status)
	assert.Contains(t, rec.Notes, "API key not valid")
	assert.Equal(t, 1, calls[llm.TierLite], "auth failures are not retried")
}

func TestAnalyze_ExtractionInvalidResponse(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	client := byTier(t, "the posting wants a Go engineer", "", nil, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorExtraction, rec.Status)
	assert.Contains(t, rec.Notes, "raw:")
	assert.Contains(t, rec.Notes, "the posting wants a Go engineer")
}

func TestAnalyze_ExtractionEmptyRequirements(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	client := byTier(t, `{"responsibilities": [], "required_skills": []}`, "", nil, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorExtraction, rec.Status)
	assert.Contains(t, rec.Notes, "no content")
}

func TestAnalyze_ScoringAPIError(t *testing.T) {
	calls := make(map[llm.ModelTier]int)
	apiErr := &llm.APIError{Kind: llm.KindContentRejected, Message: "blocked"}
	client := byTier(t, requirementsJSON, "", nil, apiErr, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorAnalysis, rec.Status)
	assert.Contains(t, rec.Notes, "fit analysis failed")
	assert.NotNil(t, rec.Requirements, "extracted requirements survive a scoring failure")
	assert.Nil(t, rec.Scores)
}

func TestAnalyze_ScoringInvalidQuartile(t *testing.T) {
	badScores := strings.Replace(scoresJSON, "0.75", "0.6", 1)
	calls := make(map[llm.ModelTier]int)
	client := byTier(t, requirementsJSON, badScores, nil, nil, calls)
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusErrorAnalysis, rec.Status)
	assert.Contains(t, rec.Notes, "failed validation")
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(&fakeClient{generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		return requirementsJSON, nil
	}}, Options{})

	rec := readyRecord()
	err := a.Analyze(ctx, rec)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusReadyForAI, rec.Status, "record is untouched on cancellation")
}

func TestAnalyze_TransientThenSuccess(t *testing.T) {
	liteCalls := 0
	client := &fakeClient{generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		if tier == llm.TierLite {
			liteCalls++
			if liteCalls == 1 {
				return "", &llm.APIError{Kind: llm.KindTransient, Message: "429 rate limited"}
			}
			return requirementsJSON, nil
		}
		return scoresJSON, nil
	}}
	a := New(client, Options{})

	rec := readyRecord()
	require.NoError(t, a.Analyze(context.Background(), rec))

	assert.Equal(t, types.StatusAIAnalyzed, rec.Status)
	assert.Equal(t, 2, liteCalls)
}

func TestScoreFit_PromptCarriesInputs(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &fakeClient{generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		gotPrompt = prompt
		gotTier = tier
		return scoresJSON, nil
	}}

	scores, err := ScoreFit(context.Background(), client, "RESUME TEXT HERE", "JOB DESCRIPTION HERE", 0)
	require.NoError(t, err)

	assert.Equal(t, llm.TierStandard, gotTier)
	assert.Contains(t, gotPrompt, "RESUME TEXT HERE")
	assert.Contains(t, gotPrompt, "JOB DESCRIPTION HERE")
	assert.NotContains(t, gotPrompt, "{{.ResumeText}}")
	assert.InDelta(t, 0.75, scores.Keyword, 0.001)
}

func TestExtractRequirements_PromptCarriesDescription(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &fakeClient{generateJSON: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		gotPrompt = prompt
		gotTier = tier
		return requirementsJSON, nil
	}}
	a := New(client, Options{})

	reqs, err := a.extractRequirements(context.Background(), testDescription)
	require.NoError(t, err)

	assert.Equal(t, llm.TierLite, gotTier)
	assert.Contains(t, gotPrompt, testDescription)
	assert.Contains(t, gotPrompt, "required_skills")
	assert.NotNil(t, reqs)
}
