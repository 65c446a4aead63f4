// internal/matching/scoring/scorer_test.go
package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmatch/internal/common/logger"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/models"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return New(DefaultTables(), hardfilter.DefaultLexicon(), logger.NewNoOpLogger()).
		WithClock(func() time.Time { return testNow })
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

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestScore_StrongCandidateScoresHigh(t *testing.T) {
	s := newTestScorer()

	// Exact category, amounts inside the expected range, home region,
	// deadline within the urgency horizon, explicit eligibility match.
	p := models.Program{
		ID:                "strong",
		Category:          "tech",
		AmountMin:         int64Ptr(30_000_000),
		AmountMax:         int64Ptr(100_000_000),
		Region:            strPtr("Seoul"),
		Deadline:          timePtr(testNow.AddDate(0, 0, 20)),
		TargetEligibility: strPtr("venture companies under 50 employees"),
	}

	got := s.Score(testProfile(), []models.Program{p})
	require.Len(t, got, 1)

	assert.InDelta(t, 1.0, got[0].SubScores.Category, 1e-9)
	assert.InDelta(t, 1.0, got[0].SubScores.Amount, 1e-9)
	assert.InDelta(t, 1.0, got[0].SubScores.Region, 1e-9)
	assert.InDelta(t, 1.0, got[0].SubScores.Deadline, 1e-9)
	assert.InDelta(t, 1.0, got[0].SubScores.CompanySize, 1e-9)
	assert.GreaterOrEqual(t, got[0].CompositeScore, 0.9)
	assert.Equal(t, got[0].CompositeScore, got[0].FinalScore)
}

func TestScore_Deterministic(t *testing.T) {
	s := newTestScorer()

	programs := []models.Program{
		{ID: "a", Category: "tech", Region: strPtr("busan")},
		{ID: "b", Category: "export"},
		{ID: "c", Category: "startup", Deadline: timePtr(testNow.AddDate(0, 0, 10))},
	}

	first := s.Score(testProfile(), programs)
	second := s.Score(testProfile(), programs)
	assert.Equal(t, first, second)
}

func TestCategoryScore(t *testing.T) {
	s := newTestScorer()
	profile := testProfile()

	tests := []struct {
		name     string
		category string
		want     float64
	}{
		{"exact match", "tech", 1.0},
		{"related via table", "startup", 0.7},
		{"unrelated", "employment", 0.3},
		{"program without category", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Program{Category: tt.category}
			assert.InDelta(t, tt.want, s.categoryScore(profile, &p), 1e-9)
		})
	}
}

func TestAmountScore(t *testing.T) {
	s := newTestScorer()
	// 10-49 employees and 100m-1b revenue put the expected range at
	// 20M to 120M won.
	profile := testProfile()

	tests := []struct {
		name string
		min  *int64
		max  *int64
		want float64
	}{
		{"no amounts disclosed", nil, nil, 0.8},
		{"both inside range", int64Ptr(30_000_000), int64Ptr(100_000_000), 1.0},
		{"only min inside", int64Ptr(30_000_000), nil, 0.8},
		{"ceiling far below need", nil, int64Ptr(1_000_000), 0.2},
		{"max ten times the ceiling", int64Ptr(30_000_000), int64Ptr(1_200_000_000), 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Program{AmountMin: tt.min, AmountMax: tt.max}
			assert.InDelta(t, tt.want, s.amountScore(profile, &p), 1e-9)
		})
	}

	// A program promising far more than the expected range never outranks
	// one whose amounts actually fit it.
	inRange := models.Program{AmountMin: int64Ptr(30_000_000), AmountMax: int64Ptr(100_000_000)}
	oversized := models.Program{AmountMin: int64Ptr(30_000_000), AmountMax: int64Ptr(1_200_000_000)}
	assert.LessOrEqual(t, s.amountScore(profile, &oversized), s.amountScore(profile, &inRange))
}

func TestRegionScore(t *testing.T) {
	s := newTestScorer()
	profile := testProfile()

	tests := []struct {
		name   string
		region *string
		want   float64
	}{
		{"nationwide program", nil, 1.0},
		{"home region", strPtr("seoul"), 1.0},
		{"nearby region", strPtr("incheon"), 0.7},
		{"distant region", strPtr("jeju"), 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Program{Region: tt.region}
			assert.InDelta(t, tt.want, s.regionScore(profile, &p), 1e-9)
		})
	}
}

func TestDeadlineScore(t *testing.T) {
	s := newTestScorer()
	profile := testProfile() // medium urgency, 180 day horizon

	tests := []struct {
		name     string
		deadline *time.Time
		want     float64
	}{
		{"rolling", nil, 0.8},
		{"within horizon", timePtr(testNow.AddDate(0, 0, 90)), 1.0},
		{"within double horizon", timePtr(testNow.AddDate(0, 0, 300)), 0.8},
		{"within triple horizon", timePtr(testNow.AddDate(0, 0, 500)), 0.6},
		{"far future", timePtr(testNow.AddDate(0, 0, 600)), 0.4},
		{"already closed", timePtr(testNow.AddDate(0, 0, -5)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Program{Deadline: tt.deadline}
			assert.InDelta(t, tt.want, s.deadlineScore(profile, &p, testNow), 1e-9)
		})
	}
}

func TestScore_SortsByCompositeDescending(t *testing.T) {
	s := newTestScorer()

	weak := models.Program{ID: "weak", Category: "employment", Region: strPtr("jeju")}
	strong := models.Program{ID: "strong", Category: "tech", Region: strPtr("seoul")}

	got := s.Score(testProfile(), []models.Program{weak, strong})
	require.Len(t, got, 2)
	assert.Equal(t, "strong", got[0].ID)
	assert.Equal(t, "weak", got[1].ID)
	assert.Greater(t, got[0].CompositeScore, got[1].CompositeScore)
}

func TestMatchReasons_AlwaysAtLeastOne(t *testing.T) {
	s := newTestScorer()

	reasons := s.matchReasons(models.SubScores{
		Category: 0.3, Amount: 0.2, Region: 0.3, Deadline: 0.4, CompanySize: 0.5,
	})
	require.NotEmpty(t, reasons)
	assert.Equal(t, "Meets baseline eligibility requirements", reasons[0])

	reasons = s.matchReasons(models.SubScores{
		Category: 1.0, Amount: 1.0, Region: 1.0, Deadline: 1.0, CompanySize: 1.0,
	})
	assert.Len(t, reasons, 5)
}

func TestExpectedAmountRange_UnknownBandsDefault(t *testing.T) {
	tables := DefaultTables()

	floor, ceil := tables.ExpectedAmountRange("", "")
	assert.InDelta(t, 5_000_000, floor, 1e-9)
	assert.InDelta(t, 30_000_000, ceil, 1e-9)
}
