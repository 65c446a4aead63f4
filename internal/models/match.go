// internal/models/match.go
package models

import "time"

// Provider identifies the organization sponsoring a program.
type Provider struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MatchedProgram is the caller-facing shape of one final match.
type MatchedProgram struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Provider     Provider   `json:"provider"`
	AmountMin    *int64     `json:"amountMin,omitempty"`
	AmountMax    *int64     `json:"amountMax,omitempty"`
	SupportRate  float64    `json:"supportRate,omitempty"`
	Region       *string    `json:"region,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	MatchScore   float64    `json:"matchScore"`
	MatchReasons []string   `json:"matchReasons"`
}

// MatchSummary aggregates the final match list.
type MatchSummary struct {
	BestMatch      string         `json:"bestMatch"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	AverageScore   float64        `json:"averageScore"`
}

// MatchResult is the response aggregate for one matching request.
// FinalMatches is sorted descending by MatchScore and holds at most ten
// entries, each with a score in [0,1].
type MatchResult struct {
	MatchingID      string           `json:"matchingId"`
	CompanyName     string           `json:"companyName"`
	TotalCandidates int              `json:"totalCandidates"`
	FilteredCount   int              `json:"filteredCount"`
	AfterRelevance  int              `json:"afterRelevance"`
	AfterScoring    int              `json:"afterScoring"`
	FinalMatches    []MatchedProgram `json:"finalMatches"`
	Summary         MatchSummary     `json:"summary"`
	Recommendations []string         `json:"recommendations"`
}
