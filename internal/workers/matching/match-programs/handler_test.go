// internal/workers/matching/match-programs/handler_test.go
package matchprograms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmatch/internal/common/logger"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/matching/pipeline"
	"govmatch/internal/matching/relevance"
	"govmatch/internal/matching/scoring"
	"govmatch/internal/models"
	"govmatch/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type stubRepo struct {
	programs []models.Program
	err      error
}

func (s *stubRepo) FindCandidates(_ context.Context, _ repository.ProgramQuery) ([]models.Program, error) {
	return s.programs, s.err
}

func (s *stubRepo) ListActive(_ context.Context) ([]models.Program, error) {
	return s.programs, s.err
}

func (s *stubRepo) CountAll(_ context.Context) (int, error) {
	return len(s.programs), s.err
}

type stubReranker struct{}

func (stubReranker) Rerank(_ context.Context, _ *models.RequesterProfile, candidates []models.ScoredProgram) []models.ScoredProgram {
	return candidates
}

func newTestHandler(repo repository.ProgramRepository) *Handler {
	log := logger.NewNoOpLogger()
	lexicon := hardfilter.DefaultLexicon()
	p := pipeline.New(
		repo,
		hardfilter.New(lexicon, log).WithClock(func() time.Time { return testNow }),
		relevance.New(50, log),
		scoring.New(scoring.DefaultTables(), lexicon, log).WithClock(func() time.Time { return testNow }),
		stubReranker{},
		20,
		log,
	)
	return NewHandler(LoadConfig(), p, log)
}

func testInput() *Input {
	return &Input{
		Profile: models.RequesterProfile{
			CompanyInfo: models.CompanyInfo{
				Name:        "Hanbit Tech",
				EntityType:  models.EntityStartup,
				PurposeText: "develop a smart factory platform",
				FoundedYear: 2023,
			},
			CompanyScale: models.CompanyScale{
				EmployeeBand: models.EmployeeBand10To49,
				Region:       "seoul",
			},
			SupportPreferences: models.SupportPreferences{
				TargetCategories: []string{"tech"},
				UrgencyTier:      models.UrgencyMedium,
			},
		},
	}
}

func TestExecute_ReturnsMatches(t *testing.T) {
	repo := &stubRepo{programs: []models.Program{
		{ID: "p-1", Title: "Smart Factory Grant", Description: "factory automation support", Category: "tech"},
		{ID: "p-2", Title: "Export Voucher", Category: "export"},
	}}

	h := newTestHandler(repo)
	out := h.Execute(context.Background(), testInput())

	require.True(t, out.MatchingSuccess)
	require.NotNil(t, out.MatchingResult)
	assert.Equal(t, 2, out.MatchingResult.TotalCandidates)
	assert.Equal(t, "Hanbit Tech", out.MatchingResult.CompanyName)
	require.Len(t, out.MatchingResult.FinalMatches, 1)
	assert.Equal(t, "p-1", out.MatchingResult.FinalMatches[0].ID)
}

func TestExecute_PipelineFailureCompletesWithoutData(t *testing.T) {
	h := newTestHandler(&stubRepo{err: errors.New("db down")})

	out := h.Execute(context.Background(), testInput())
	assert.False(t, out.MatchingSuccess)
	assert.Nil(t, out.MatchingResult)
	assert.NotEmpty(t, out.MatchingMessage)
}

func TestExecute_EmptyCandidateSet(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	out := h.Execute(context.Background(), testInput())
	require.True(t, out.MatchingSuccess)
	require.NotNil(t, out.MatchingResult)
	assert.Empty(t, out.MatchingResult.FinalMatches)
	assert.NotEmpty(t, out.MatchingResult.Recommendations)
}
