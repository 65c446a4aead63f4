// internal/workers/matching/match-programs/models.go
package matchprograms

import "govmatch/internal/models"

// Input holds the job variables for one matching request.
type Input struct {
	Profile models.RequesterProfile `json:"profile"`
}

// Output is written back to the process instance. Success false carries no
// data, only a user-facing message.
type Output struct {
	MatchingSuccess bool                `json:"matchingSuccess"`
	MatchingMessage string              `json:"matchingMessage"`
	MatchingResult  *models.MatchResult `json:"matchingResult,omitempty"`
}
