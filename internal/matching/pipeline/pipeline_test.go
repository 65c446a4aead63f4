// internal/matching/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmatch/internal/common/logger"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/matching/relevance"
	"govmatch/internal/matching/scoring"
	"govmatch/internal/models"
	"govmatch/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	programs []models.Program
	err      error
}

func (f *fakeRepo) FindCandidates(_ context.Context, _ repository.ProgramQuery) ([]models.Program, error) {
	return f.programs, f.err
}

func (f *fakeRepo) ListActive(_ context.Context) ([]models.Program, error) {
	return f.programs, f.err
}

func (f *fakeRepo) CountAll(_ context.Context) (int, error) {
	return len(f.programs), f.err
}

type passthroughReranker struct {
	calls int
	limit int
	panic bool
}

func (r *passthroughReranker) Rerank(_ context.Context, _ *models.RequesterProfile, candidates []models.ScoredProgram) []models.ScoredProgram {
	r.calls++
	if r.panic {
		panic("reranker exploded")
	}
	if r.limit > 0 && len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}
	for i := range candidates {
		if len(candidates[i].MatchReasons) == 0 {
			candidates[i].MatchReasons = []string{"Meets baseline eligibility requirements"}
		}
	}
	return candidates
}

func testProfile() *models.RequesterProfile {
	return &models.RequesterProfile{
		CompanyInfo: models.CompanyInfo{
			Name:        "Hanbit Tech",
			EntityType:  models.EntityStartup,
			PurposeText: "develop a smart factory platform",
			FoundedYear: 2023,
		},
		CompanyScale: models.CompanyScale{
			EmployeeBand: models.EmployeeBand10To49,
			RevenueBand:  models.RevenueBand100MTo1B,
			Region:       "seoul",
		},
		SupportPreferences: models.SupportPreferences{
			TargetCategories: []string{"tech"},
			UrgencyTier:      models.UrgencyMedium,
		},
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func testPrograms() []models.Program {
	return []models.Program{
		{
			ID:          "p-1",
			Title:       "Smart Factory Grant",
			Description: "Supports smart factory platform development",
			Category:    "tech",
			Deadline:    timePtr(testNow.AddDate(0, 0, 20)),
		},
		{
			ID:          "p-2",
			Title:       "Tech Startup Fund",
			Description: "Growth funding for technology companies",
			Category:    "tech",
		},
		{
			ID:       "p-3",
			Title:    "Fisheries Support",
			Category: "agriculture",
		},
	}
}

func newTestPipeline(repo repository.ProgramRepository, reranker Reranker) *Pipeline {
	log := logger.NewNoOpLogger()
	lexicon := hardfilter.DefaultLexicon()
	return New(
		repo,
		hardfilter.New(lexicon, log).WithClock(func() time.Time { return testNow }),
		relevance.New(50, log),
		scoring.New(scoring.DefaultTables(), lexicon, log).WithClock(func() time.Time { return testNow }),
		reranker,
		20,
		log,
	)
}

func TestMatch_FullRun(t *testing.T) {
	reranker := &passthroughReranker{limit: 10}
	p := newTestPipeline(&fakeRepo{programs: testPrograms()}, reranker)

	out := p.Match(context.Background(), testProfile())
	require.True(t, out.Success)
	require.NotNil(t, out.Data)

	assert.NotEmpty(t, out.Data.MatchingID)
	assert.Equal(t, "Hanbit Tech", out.Data.CompanyName)
	assert.Equal(t, 3, out.Data.TotalCandidates)
	assert.Equal(t, 2, out.Data.FilteredCount) // agriculture program filtered out
	assert.Equal(t, 2, out.Data.AfterRelevance)
	assert.Equal(t, 2, out.Data.AfterScoring)
	require.Len(t, out.Data.FinalMatches, 2)
	assert.Equal(t, 1, reranker.calls)

	for _, m := range out.Data.FinalMatches {
		assert.NotEmpty(t, m.MatchReasons)
	}

	assert.Equal(t, out.Data.FinalMatches[0].Title, out.Data.Summary.BestMatch)
	assert.Equal(t, 2, out.Data.Summary.CategoryCounts["tech"])
	assert.NotEmpty(t, out.Data.Recommendations)
}

func TestMatch_EmptyAfterHardFilter(t *testing.T) {
	reranker := &passthroughReranker{}
	profile := testProfile()
	profile.SupportPreferences.TargetCategories = []string{"fisheries"}

	p := newTestPipeline(&fakeRepo{programs: testPrograms()}, reranker)

	out := p.Match(context.Background(), profile)
	require.True(t, out.Success)
	require.NotNil(t, out.Data)

	assert.Zero(t, out.Data.FilteredCount)
	assert.Empty(t, out.Data.FinalMatches)
	assert.NotEmpty(t, out.Data.Recommendations)
	// Later stages never run.
	assert.Zero(t, reranker.calls)
	assert.Zero(t, out.Data.AfterRelevance)
	assert.Zero(t, out.Data.AfterScoring)
}

func TestMatch_RepositoryFailure(t *testing.T) {
	p := newTestPipeline(&fakeRepo{err: errors.New("connection refused")}, &passthroughReranker{})

	out := p.Match(context.Background(), testProfile())
	assert.False(t, out.Success)
	assert.Nil(t, out.Data)
	assert.NotEmpty(t, out.Message)
}

func TestMatch_RecoversFromPanic(t *testing.T) {
	p := newTestPipeline(&fakeRepo{programs: testPrograms()}, &passthroughReranker{panic: true})

	out := p.Match(context.Background(), testProfile())
	require.NotNil(t, out)
	assert.False(t, out.Success)
	assert.Nil(t, out.Data)
}

func TestBuildRecommendations(t *testing.T) {
	deadline := testNow.AddDate(0, 0, 10)
	matches := []models.MatchedProgram{
		{Title: "First", MatchScore: 0.9, Deadline: &deadline},
		{Title: "Second", MatchScore: 0.8},
		{Title: "Third", MatchScore: 0.7},
		{Title: "Fourth", MatchScore: 0.6},
	}

	recs := buildRecommendations(matches, testNow)
	require.Len(t, recs, 3)
	assert.Contains(t, recs[0], "First")
	assert.Contains(t, recs[1], "4 programs")
	assert.Contains(t, recs[2], "close within")
}

func TestBuildSummary(t *testing.T) {
	matches := []models.MatchedProgram{
		{Title: "A", Category: "tech", MatchScore: 0.9},
		{Title: "B", Category: "tech", MatchScore: 0.7},
		{Title: "C", Category: "export", MatchScore: 0.5},
	}

	summary := buildSummary(matches)
	assert.Equal(t, "A", summary.BestMatch)
	assert.Equal(t, 2, summary.CategoryCounts["tech"])
	assert.Equal(t, 1, summary.CategoryCounts["export"])
	assert.InDelta(t, 0.7, summary.AverageScore, 1e-9)
}
