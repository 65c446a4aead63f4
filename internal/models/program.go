// internal/models/program.go
package models

import "time"

// Program is a support-program record from the candidate repository.
// Nullable fields use pointers: a nil Region means nationwide, a nil
// Deadline means rolling (always open), a nil TargetEligibility means the
// program is open to all, and nil amounts mean the amount is unspecified.
// Programs are read-only to the matching pipeline.
type Program struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	TargetEligibility *string    `json:"targetEligibility,omitempty"`
	Region            *string    `json:"region,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	AmountMin         *int64     `json:"amountMin,omitempty"`
	AmountMax         *int64     `json:"amountMax,omitempty"`
	SupportRate       float64    `json:"supportRate,omitempty"`
	ProviderName      string     `json:"providerName"`
	ProviderType      string     `json:"providerType"`
	Tags              []string   `json:"tags,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsRolling reports whether the program has no fixed closing date.
func (p *Program) IsRolling() bool {
	return p.Deadline == nil
}

// DaysUntilDeadline returns the whole days remaining until the deadline
// relative to now. Negative values mean the program already closed.
func (p *Program) DaysUntilDeadline(now time.Time) int {
	if p.Deadline == nil {
		return 0
	}
	return int(p.Deadline.Sub(now).Hours() / 24)
}

// SubScores holds the five explainable components of the composite score.
// Every component lies in [0,1].
type SubScores struct {
	Category    float64 `json:"category"`
	Amount      float64 `json:"amount"`
	Region      float64 `json:"region"`
	Deadline    float64 `json:"deadline"`
	CompanySize float64 `json:"companySize"`
}

// ScoredProgram annotates a Program with per-request scoring state.
// Created per-request and discarded after the response; never persisted.
type ScoredProgram struct {
	Program

	RelevanceScore float64   `json:"relevanceScore"`
	SubScores      SubScores `json:"subScores"`
	CompositeScore float64   `json:"compositeScore"`
	MatchReasons   []string  `json:"matchReasons"`

	// Set by the reasoning stage.
	FinalScore float64 `json:"finalScore"`
	Confidence float64 `json:"confidence"`
}
