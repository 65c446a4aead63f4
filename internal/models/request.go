// internal/models/request.go
package models

// Closed enumerations for the inbound matching request.
const (
	EntityCorporation    = "corporation"
	EntitySoleProprietor = "sole_proprietor"
	EntityStartup        = "startup"
	EntityIndividual     = "individual"
)

const (
	EmployeeBand1To9     = "1-9"
	EmployeeBand10To49   = "10-49"
	EmployeeBand50To199  = "50-199"
	EmployeeBand200Plus  = "200+"
)

const (
	RevenueBandUnder100M = "under-100m"
	RevenueBand100MTo1B  = "100m-1b"
	RevenueBand1BTo10B   = "1b-10b"
	RevenueBandOver10B   = "over-10b"
)

const (
	UrgencyImmediate = "immediate"
	UrgencyShort     = "short"
	UrgencyMedium    = "medium"
	UrgencyLong      = "long"
)

// CompanyInfo describes the requesting business.
type CompanyInfo struct {
	Name        string `json:"name"`
	EntityType  string `json:"entityType"`
	PurposeText string `json:"purposeText"`
	FoundedYear int    `json:"foundedYear"`
}

// CompanyScale describes the size and location of the requesting business.
type CompanyScale struct {
	EmployeeBand string `json:"employeeBand"`
	RevenueBand  string `json:"revenueBand"`
	Region       string `json:"region"`
}

// SupportPreferences describes what kind of support the requester is after.
type SupportPreferences struct {
	TargetCategories []string `json:"targetCategories"`
	UrgencyTier      string   `json:"urgencyTier"`
	VoucherInterest  []string `json:"voucherInterest,omitempty"`
}

// RequesterProfile is the inbound matching query. It is immutable for the
// duration of one matching request.
type RequesterProfile struct {
	CompanyInfo        CompanyInfo        `json:"companyInfo"`
	CompanyScale       CompanyScale       `json:"companyScale"`
	SupportPreferences SupportPreferences `json:"supportPreferences"`
}

// HorizonDays returns the deadline horizon in days derived from the urgency
// tier. Unknown tiers get the widest horizon rather than excluding programs.
func (p *RequesterProfile) HorizonDays() int {
	switch p.SupportPreferences.UrgencyTier {
	case UrgencyImmediate:
		return 30
	case UrgencyShort:
		return 90
	case UrgencyMedium:
		return 180
	default:
		return 365
	}
}

// CompanyAgeYears returns the company age relative to the given year.
func (p *RequesterProfile) CompanyAgeYears(currentYear int) int {
	if p.CompanyInfo.FoundedYear <= 0 || p.CompanyInfo.FoundedYear > currentYear {
		return 0
	}
	return currentYear - p.CompanyInfo.FoundedYear
}
