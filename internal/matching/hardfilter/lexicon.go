// internal/matching/hardfilter/lexicon.go
package hardfilter

import "strings"

// Lexicon holds the fixed keyword tables used by the eligibility predicates.
// It is passed in explicitly so a different market can swap the tables
// without touching the filter logic.
type Lexicon struct {
	// RegionAliases maps a requester region code to the keywords that count
	// as a textual match in a program's region field.
	RegionAliases map[string][]string

	// EntityKeywords maps a requester entity type to the eligibility-text
	// keywords consistent with it.
	EntityKeywords map[string][]string

	// SizeKeywords maps an employee band to the eligibility-text keywords
	// consistent with it.
	SizeKeywords map[string][]string
}

// DefaultLexicon returns the tables for the Korean support-program market.
func DefaultLexicon() Lexicon {
	return Lexicon{
		RegionAliases: map[string][]string{
			"seoul":   {"seoul", "capital"},
			"incheon": {"incheon", "capital"},
			"gyeonggi": {"gyeonggi", "capital"},
			"busan":   {"busan"},
			"daegu":   {"daegu"},
			"daejeon": {"daejeon"},
			"gwangju": {"gwangju"},
			"ulsan":   {"ulsan"},
			"sejong":  {"sejong"},
			"gangwon": {"gangwon"},
			"jeju":    {"jeju"},
		},
		EntityKeywords: map[string][]string{
			"startup":         {"startup", "venture", "new business", "early-stage"},
			"individual":      {"individual", "sole proprietor", "small business", "micro"},
			"sole_proprietor": {"individual", "sole proprietor", "small business", "micro"},
			"corporation":     {"sme", "small and medium", "corporation", "company"},
		},
		SizeKeywords: map[string][]string{
			"1-9":    {"small business", "micro", "startup", "sme"},
			"10-49":  {"sme", "small and medium", "small business"},
			"50-199": {"sme", "small and medium", "mid-size"},
			"200+":   {"mid-size", "midsize", "middle market", "large"},
		},
	}
}

// RegionMatches reports whether the program region text matches the
// requester region by substring or alias.
func (l Lexicon) RegionMatches(requesterRegion, programRegion string) bool {
	req := strings.ToLower(strings.TrimSpace(requesterRegion))
	prog := strings.ToLower(programRegion)
	if req == "" {
		return true
	}
	if strings.Contains(prog, req) {
		return true
	}
	for _, alias := range l.RegionAliases[req] {
		if strings.Contains(prog, alias) {
			return true
		}
	}
	return false
}

// EligibilityMatches reports whether the eligibility text contains a keyword
// consistent with the requester's entity type or size band.
func (l Lexicon) EligibilityMatches(entityType, employeeBand, eligibilityText string) bool {
	text := strings.ToLower(eligibilityText)
	for _, kw := range l.EntityKeywords[entityType] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, kw := range l.SizeKeywords[employeeBand] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
