// internal/matching/scoring/scorer.go
package scoring

import (
	"sort"
	"strings"
	"time"

	"govmatch/internal/common/logger"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/models"
)

// Sub-score weights. They must sum to 1 so the composite stays in [0,1].
const (
	categoryWeight    = 0.40
	amountWeight      = 0.25
	regionWeight      = 0.15
	deadlineWeight    = 0.10
	companySizeWeight = 0.10
)

// Scorer assigns each candidate an explainable composite score built from
// five weighted sub-scores. Scoring is deterministic for identical inputs
// and makes no external calls.
type Scorer struct {
	tables  Tables
	lexicon hardfilter.Lexicon
	logger  logger.Logger
	now     func() time.Time
}

func New(tables Tables, lexicon hardfilter.Lexicon, log logger.Logger) *Scorer {
	return &Scorer{
		tables:  tables,
		lexicon: lexicon,
		logger:  log.WithFields(map[string]interface{}{"stage": "weighted-scorer"}),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score computes the composite score for every candidate and returns them
// sorted descending by composite score (stable for ties).
func (s *Scorer) Score(profile *models.RequesterProfile, programs []models.Program) []models.ScoredProgram {
	now := s.now()

	scored := make([]models.ScoredProgram, 0, len(programs))
	for _, p := range programs {
		sub := models.SubScores{
			Category:    s.categoryScore(profile, &p),
			Amount:      s.amountScore(profile, &p),
			Region:      s.regionScore(profile, &p),
			Deadline:    s.deadlineScore(profile, &p, now),
			CompanySize: s.companySizeScore(profile, &p),
		}

		composite := clamp01(
			sub.Category*categoryWeight +
				sub.Amount*amountWeight +
				sub.Region*regionWeight +
				sub.Deadline*deadlineWeight +
				sub.CompanySize*companySizeWeight)

		scored = append(scored, models.ScoredProgram{
			Program:        p,
			SubScores:      sub,
			CompositeScore: composite,
			MatchReasons:   s.matchReasons(sub),
			FinalScore:     composite,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})

	s.logger.Debug("weighted scoring applied", map[string]interface{}{
		"candidateCount": len(scored),
	})

	return scored
}

func (s *Scorer) categoryScore(profile *models.RequesterProfile, p *models.Program) float64 {
	requested := profile.SupportPreferences.TargetCategories
	if p.Category == "" || len(requested) == 0 {
		return 0.5
	}
	for _, c := range requested {
		if c == p.Category {
			return 1.0
		}
	}
	if s.tables.IsRelatedCategory(p.Category, requested) {
		return 0.7
	}
	return 0.3
}

func (s *Scorer) amountScore(profile *models.RequesterProfile, p *models.Program) float64 {
	if p.AmountMin == nil && p.AmountMax == nil {
		return 0.8
	}

	floor, ceil := s.tables.ExpectedAmountRange(
		profile.CompanyScale.EmployeeBand,
		profile.CompanyScale.RevenueBand,
	)

	score := 0.5
	if p.AmountMin != nil {
		v := float64(*p.AmountMin)
		if v >= floor && v <= ceil {
			score += 0.3
		}
	}
	if p.AmountMax != nil {
		v := float64(*p.AmountMax)
		if v >= floor && v <= ceil {
			score += 0.2
		}
		if v < floor*0.1 {
			score -= 0.3
		}
	}
	return clamp01(score)
}

func (s *Scorer) regionScore(profile *models.RequesterProfile, p *models.Program) float64 {
	requesterRegion := strings.ToLower(strings.TrimSpace(profile.CompanyScale.Region))
	if p.Region == nil || requesterRegion == "" {
		return 1.0
	}
	programRegion := strings.ToLower(*p.Region)
	if s.lexicon.RegionMatches(requesterRegion, programRegion) {
		return 1.0
	}
	if s.tables.IsNearbyRegion(requesterRegion, programRegion) {
		return 0.7
	}
	return 0.3
}

func (s *Scorer) deadlineScore(profile *models.RequesterProfile, p *models.Program, now time.Time) float64 {
	if p.Deadline == nil {
		return 0.8
	}

	days := p.DaysUntilDeadline(now)
	if days < 0 {
		return 0
	}

	horizon := profile.HorizonDays()
	switch {
	case days <= horizon:
		return 1.0
	case days <= 2*horizon:
		return 0.8
	case days <= 3*horizon:
		return 0.6
	default:
		return 0.4
	}
}

func (s *Scorer) companySizeScore(profile *models.RequesterProfile, p *models.Program) float64 {
	if p.TargetEligibility == nil {
		return 0.8
	}
	if s.lexicon.EligibilityMatches(
		profile.CompanyInfo.EntityType,
		profile.CompanyScale.EmployeeBand,
		*p.TargetEligibility,
	) {
		return 1.0
	}
	return 0.5
}

// matchReasons emits short fixed reasons keyed to sub-score thresholds.
// At least one reason is always present.
func (s *Scorer) matchReasons(sub models.SubScores) []string {
	var reasons []string
	if sub.Category >= 0.9 {
		reasons = append(reasons, "Exact match with your target support category")
	} else if sub.Category >= 0.7 {
		reasons = append(reasons, "Closely related to your target support category")
	}
	if sub.Amount >= 0.8 {
		reasons = append(reasons, "Support amount fits your expected funding scale")
	}
	if sub.Region >= 0.9 {
		reasons = append(reasons, "Available in your region")
	}
	if sub.Deadline >= 0.9 {
		reasons = append(reasons, "Application deadline meets your urgency window")
	}
	if sub.CompanySize >= 0.9 {
		reasons = append(reasons, "Eligibility explicitly covers companies like yours")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Meets baseline eligibility requirements")
	}
	return reasons
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
