// internal/matching/scoring/tables.go
package scoring

// Tables holds the fixed lookup tables behind the weighted sub-scores.
// Passed in explicitly so per-market variants can be tested and localized
// without touching the scoring logic. Absence from a table means "no bonus",
// never an error: the related-category and nearby-region tables are known to
// be asymmetric.
type Tables struct {
	// RelatedCategories maps a program category to requester categories that
	// count as a near match.
	RelatedCategories map[string][]string

	// NearbyRegions maps a requester region to regions scored as adjacent.
	NearbyRegions map[string][]string

	// EmployeeMultipliers and RevenueMultipliers scale the expected funding
	// range by company size.
	EmployeeMultipliers map[string]float64
	RevenueMultipliers  map[string]float64

	// ExpectedAmountBase is the per-unit base of the expected funding range.
	ExpectedAmountBase float64
}

// DefaultTables returns the tables for the Korean support-program market.
func DefaultTables() Tables {
	return Tables{
		RelatedCategories: map[string][]string{
			"tech":       {"startup", "rnd"},
			"startup":    {"tech", "finance"},
			"export":     {"management", "marketing"},
			"management": {"export", "finance"},
			"employment": {"startup", "management"},
			"rnd":        {"tech"},
		},
		NearbyRegions: map[string][]string{
			"seoul":    {"incheon", "gyeonggi"},
			"incheon":  {"seoul", "gyeonggi"},
			"gyeonggi": {"seoul", "incheon"},
			"daejeon":  {"sejong", "chungnam"},
			"sejong":   {"daejeon", "chungnam"},
			"busan":    {"ulsan", "gyeongnam"},
			"ulsan":    {"busan", "gyeongnam"},
		},
		EmployeeMultipliers: map[string]float64{
			"1-9":    1,
			"10-49":  2,
			"50-199": 3,
			"200+":   4,
		},
		RevenueMultipliers: map[string]float64{
			"under-100m": 1,
			"100m-1b":    2,
			"1b-10b":     3,
			"over-10b":   4,
		},
		ExpectedAmountBase: 10_000_000,
	}
}

// ExpectedAmountRange derives the funding range a company of the given bands
// would plausibly apply for.
func (t Tables) ExpectedAmountRange(employeeBand, revenueBand string) (floor, ceil float64) {
	em, ok := t.EmployeeMultipliers[employeeBand]
	if !ok {
		em = 1
	}
	rm, ok := t.RevenueMultipliers[revenueBand]
	if !ok {
		rm = 1
	}
	base := t.ExpectedAmountBase * em * rm
	return base * 0.5, base * 3
}

// IsRelatedCategory reports whether any requested category counts as related
// to the program category.
func (t Tables) IsRelatedCategory(programCategory string, requested []string) bool {
	related := t.RelatedCategories[programCategory]
	for _, want := range requested {
		for _, rel := range related {
			if want == rel {
				return true
			}
		}
	}
	return false
}

// IsNearbyRegion reports whether the program region is adjacent to the
// requester region.
func (t Tables) IsNearbyRegion(requesterRegion, programRegion string) bool {
	for _, nearby := range t.NearbyRegions[requesterRegion] {
		if programRegion == nearby {
			return true
		}
	}
	return false
}
