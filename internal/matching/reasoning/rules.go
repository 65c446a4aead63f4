// internal/matching/reasoning/rules.go
package reasoning

import (
	"strings"
	"time"

	"govmatch/internal/models"
)

// RuleTables holds the fixed tables behind the local rule-based enhancement.
// Explicit configuration so markets can localize the keyword sets.
type RuleTables struct {
	// Synonyms widens the purpose-description overlap check.
	Synonyms map[string][]string

	// InnovationKeywords trigger the fixed innovation bonus when present in
	// a program description.
	InnovationKeywords []string

	// DevelopmentKeywords in the purpose text raise the estimated funding
	// need for the efficiency rule.
	DevelopmentKeywords []string

	// NeedByEmployeeBand estimates a company's funding need.
	NeedByEmployeeBand map[string]float64
}

func DefaultRuleTables() RuleTables {
	return RuleTables{
		Synonyms: map[string][]string{
			"develop":   {"development", "build", "create", "rnd", "research"},
			"export":    {"overseas", "global", "international", "trade"},
			"hire":      {"hiring", "employment", "recruit", "workforce"},
			"marketing": {"promotion", "branding", "advertising"},
			"digital":   {"online", "platform", "software", "it"},
			"factory":   {"manufacturing", "production", "facility", "smart"},
		},
		InnovationKeywords: []string{
			"innovation", "ai", "digital transformation", "smart", "green",
			"carbon neutral", "deep tech",
		},
		DevelopmentKeywords: []string{
			"develop", "development", "rnd", "research", "prototype",
		},
		NeedByEmployeeBand: map[string]float64{
			"1-9":    30_000_000,
			"10-49":  80_000_000,
			"50-199": 200_000_000,
			"200+":   500_000_000,
		},
	}
}

// Enhancer deterministically adjusts a candidate's composite score by up to
// roughly ±0.1 using only local rules. It backs the lowest reasoning tier
// and the per-item fallback for low-confidence judgments.
type Enhancer struct {
	tables RuleTables
	now    func() time.Time
}

func NewEnhancer(tables RuleTables) *Enhancer {
	return &Enhancer{tables: tables, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (e *Enhancer) WithClock(now func() time.Time) *Enhancer {
	e.now = now
	return e
}

// ruleConfidence marks rule-derived scores; below the gate threshold so a
// later real judgment would always override it.
const ruleConfidence = 0.5

// Enhance returns the candidate with an adjusted final score and
// rule-derived reasons appended.
func (e *Enhancer) Enhance(profile *models.RequesterProfile, candidate models.ScoredProgram) models.ScoredProgram {
	adjustment := 0.0
	reasons := candidate.MatchReasons

	// Purpose-description alignment via synonym-aware keyword overlap.
	ratio := e.alignmentRatio(profile.CompanyInfo.PurposeText, candidate.Description)
	adjustment += (ratio - 0.5) * 0.2
	if ratio >= 0.7 {
		reasons = append(reasons, "Program focus closely matches your stated purpose")
	}

	// Growth-stage rule: company age matched to category.
	if reason, bonus := e.growthStageBonus(profile, candidate.Category); bonus > 0 {
		adjustment += bonus
		reasons = append(reasons, reason)
	}

	// Efficiency rule: effective support vs estimated need.
	if reason, delta := e.efficiencyDelta(profile, &candidate.Program); delta != 0 {
		adjustment += delta
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// Innovation keyword bonus.
	if e.containsAny(strings.ToLower(candidate.Description), e.tables.InnovationKeywords) {
		adjustment += 0.05
		reasons = append(reasons, "Targets innovation-oriented businesses")
	}

	candidate.FinalScore = clampConfidence(candidate.CompositeScore + adjustment)
	candidate.Confidence = ruleConfidence
	candidate.MatchReasons = reasons
	return candidate
}

// alignmentRatio returns the share of purpose keywords found, directly or
// via synonyms, in the description.
func (e *Enhancer) alignmentRatio(purposeText, description string) float64 {
	keywords := tokenize(purposeText)
	if len(keywords) == 0 {
		return 0.5 // neutral when there is nothing to align
	}

	desc := strings.ToLower(description)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			matched++
			continue
		}
		for _, syn := range e.tables.Synonyms[kw] {
			if strings.Contains(desc, syn) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}

func (e *Enhancer) growthStageBonus(profile *models.RequesterProfile, category string) (string, float64) {
	age := profile.CompanyAgeYears(e.now().Year())
	switch {
	case age <= 3 && category == "startup":
		return "Designed for early-stage companies like yours", 0.05
	case age > 3 && age <= 7 && category == "tech":
		return "Fits your growth-stage technology focus", 0.05
	case age > 7 && category == "export":
		return "Suited to established companies expanding abroad", 0.05
	}
	return "", 0
}

func (e *Enhancer) efficiencyDelta(profile *models.RequesterProfile, p *models.Program) (string, float64) {
	if p.AmountMax == nil || p.SupportRate <= 0 {
		return "", 0
	}

	need, ok := e.tables.NeedByEmployeeBand[profile.CompanyScale.EmployeeBand]
	if !ok {
		return "", 0
	}
	if e.containsAny(strings.ToLower(profile.CompanyInfo.PurposeText), e.tables.DevelopmentKeywords) {
		need *= 1.5
	}

	effective := float64(*p.AmountMax) * p.SupportRate
	if effective >= need {
		return "Support scale covers your estimated funding need", 0.05
	}
	if effective < need*0.3 {
		return "", -0.05
	}
	return "", 0
}

func (e *Enhancer) containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	var tokens []string
	for _, f := range fields {
		f = strings.Trim(f, ".,!?:;()[]\"'")
		if len([]rune(f)) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
