// internal/matching/hardfilter/hardfilter.go
package hardfilter

import (
	"sort"
	"time"

	"govmatch/internal/common/logger"
	"govmatch/internal/models"
)

// Filter applies the categorical eligibility predicates that take the full
// candidate set down to the programs the requester can actually apply for.
//
// Missing data is always inclusive: a program without region, eligibility
// text, or deadline matches everyone. Only an already-closed deadline is a
// hard exclusion.
type Filter struct {
	lexicon Lexicon
	logger  logger.Logger
	now     func() time.Time
}

func New(lexicon Lexicon, log logger.Logger) *Filter {
	return &Filter{
		lexicon: lexicon,
		logger:  log.WithFields(map[string]interface{}{"stage": "hard-filter"}),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (f *Filter) WithClock(now func() time.Time) *Filter {
	f.now = now
	return f
}

// Apply returns every candidate satisfying all eligibility predicates,
// ordered ascending by deadline with rolling-deadline programs last.
func (f *Filter) Apply(profile *models.RequesterProfile, programs []models.Program) []models.Program {
	now := f.now()
	horizon := now.AddDate(0, 0, profile.HorizonDays())

	var eligible []models.Program
	for _, p := range programs {
		if !f.categoryMatches(profile, &p) {
			continue
		}
		if !f.regionMatches(profile, &p) {
			continue
		}
		if !f.eligibilityMatches(profile, &p) {
			continue
		}
		if !f.deadlineMatches(&p, now, horizon) {
			continue
		}
		eligible = append(eligible, p)
	}

	// Soonest-closing first; rolling programs sort after every dated one.
	sort.SliceStable(eligible, func(i, j int) bool {
		di, dj := eligible[i].Deadline, eligible[j].Deadline
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.Before(*dj)
	})

	f.logger.Debug("hard filter applied", map[string]interface{}{
		"inputCount":  len(programs),
		"outputCount": len(eligible),
	})

	return eligible
}

func (f *Filter) categoryMatches(profile *models.RequesterProfile, p *models.Program) bool {
	requested := profile.SupportPreferences.TargetCategories
	if len(requested) == 0 {
		return true
	}
	for _, c := range requested {
		if c == p.Category {
			return true
		}
	}
	return false
}

func (f *Filter) regionMatches(profile *models.RequesterProfile, p *models.Program) bool {
	if p.Region == nil {
		return true // nationwide
	}
	return f.lexicon.RegionMatches(profile.CompanyScale.Region, *p.Region)
}

func (f *Filter) eligibilityMatches(profile *models.RequesterProfile, p *models.Program) bool {
	if p.TargetEligibility == nil {
		return true // open to all
	}
	return f.lexicon.EligibilityMatches(
		profile.CompanyInfo.EntityType,
		profile.CompanyScale.EmployeeBand,
		*p.TargetEligibility,
	)
}

func (f *Filter) deadlineMatches(p *models.Program, now, horizon time.Time) bool {
	if p.Deadline == nil {
		return true // rolling
	}
	if p.Deadline.Before(now) {
		return false // already closed, regardless of anything else
	}
	return !p.Deadline.After(horizon)
}
