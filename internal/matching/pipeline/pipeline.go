// internal/matching/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"govmatch/internal/common/logger"
	"govmatch/internal/common/metrics"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/matching/relevance"
	"govmatch/internal/matching/scoring"
	"govmatch/internal/models"
	"govmatch/internal/repository"
)

const (
	stageHardFilter = "hard_filter"
	stageRelevance  = "relevance"
	stageScoring    = "scoring"
	stageReasoning  = "reasoning"

	closingSoonDays = 30
)

// Reranker is the final reasoning stage as seen by the pipeline.
type Reranker interface {
	Rerank(ctx context.Context, profile *models.RequesterProfile, candidates []models.ScoredProgram) []models.ScoredProgram
}

// Output is the envelope handed back to callers. Success false means the
// pipeline could not produce a result; it never carries partial data.
type Output struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *models.MatchResult `json:"data,omitempty"`
}

// Pipeline chains the four matching stages over the active program set.
type Pipeline struct {
	repo         repository.ProgramRepository
	hard         *hardfilter.Filter
	relevance    *relevance.Filter
	scorer       *scoring.Scorer
	reranker     Reranker
	scoringLimit int
	logger       logger.Logger
}

func New(repo repository.ProgramRepository, hard *hardfilter.Filter, rel *relevance.Filter, scorer *scoring.Scorer, reranker Reranker, scoringLimit int, log logger.Logger) *Pipeline {
	return &Pipeline{
		repo:         repo,
		hard:         hard,
		relevance:    rel,
		scorer:       scorer,
		reranker:     reranker,
		scoringLimit: scoringLimit,
		logger:       log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Match runs the full pipeline for one requester profile. It never returns
// an error and never panics: any failure is folded into a Success false
// output so the caller can complete its task with the failure recorded.
func (p *Pipeline) Match(ctx context.Context, profile *models.RequesterProfile) (out *Output) {
	matchingID := uuid.New().String()
	log := p.logger.WithFields(map[string]interface{}{
		"matching_id": matchingID,
		"company":     profile.CompanyInfo.Name,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", map[string]interface{}{"panic": fmt.Sprintf("%v", r)})
			metrics.MatchingRequestsTotal.WithLabelValues("panic").Inc()
			out = &Output{
				Success: false,
				Message: "Matching could not be completed, please try again later",
			}
		}
	}()

	programs, err := p.repo.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load active programs", nil)
		metrics.MatchingRequestsTotal.WithLabelValues("error").Inc()
		return &Output{
			Success: false,
			Message: "Matching could not be completed, please try again later",
		}
	}

	result := &models.MatchResult{
		MatchingID:      matchingID,
		CompanyName:     profile.CompanyInfo.Name,
		TotalCandidates: len(programs),
	}

	filtered := p.timed(stageHardFilter, func() []models.Program {
		return p.hard.Apply(profile, programs)
	})
	result.FilteredCount = len(filtered)

	if len(filtered) == 0 {
		log.Info("no programs survived hard filtering", map[string]interface{}{
			"total_candidates": len(programs),
		})
		metrics.MatchingRequestsTotal.WithLabelValues("empty").Inc()
		result.FinalMatches = []models.MatchedProgram{}
		result.Summary = models.MatchSummary{CategoryCounts: map[string]int{}}
		result.Recommendations = emptyResultRecommendations(profile)
		return &Output{
			Success: true,
			Message: "No programs currently match your requirements",
			Data:    result,
		}
	}

	relevant := p.timed(stageRelevance, func() []models.Program {
		return p.relevance.Apply(profile.CompanyInfo.PurposeText, filtered)
	})
	result.AfterRelevance = len(relevant)

	scored := p.timedScored(stageScoring, func() []models.ScoredProgram {
		s := p.scorer.Score(profile, relevant)
		if len(s) > p.scoringLimit {
			s = s[:p.scoringLimit]
		}
		return s
	})
	result.AfterScoring = len(scored)

	final := p.timedScored(stageReasoning, func() []models.ScoredProgram {
		return p.reranker.Rerank(ctx, profile, scored)
	})

	result.FinalMatches = toMatchedPrograms(final)
	result.Summary = buildSummary(result.FinalMatches)
	result.Recommendations = buildRecommendations(result.FinalMatches, time.Now())

	log.Info("matching completed", map[string]interface{}{
		"total_candidates": result.TotalCandidates,
		"after_filter":     result.FilteredCount,
		"after_relevance":  result.AfterRelevance,
		"after_scoring":    result.AfterScoring,
		"final_matches":    len(result.FinalMatches),
	})
	metrics.MatchingRequestsTotal.WithLabelValues("success").Inc()

	return &Output{
		Success: true,
		Message: fmt.Sprintf("Found %d matching programs", len(result.FinalMatches)),
		Data:    result,
	}
}

func (p *Pipeline) timed(stage string, fn func() []models.Program) []models.Program {
	start := time.Now()
	out := fn()
	p.observeStage(stage, start, len(out))
	return out
}

func (p *Pipeline) timedScored(stage string, fn func() []models.ScoredProgram) []models.ScoredProgram {
	start := time.Now()
	out := fn()
	p.observeStage(stage, start, len(out))
	return out
}

func (p *Pipeline) observeStage(stage string, start time.Time, count int) {
	metrics.MatchingStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	metrics.MatchingStageCandidates.WithLabelValues(stage).Observe(float64(count))
}

func toMatchedPrograms(scored []models.ScoredProgram) []models.MatchedProgram {
	out := make([]models.MatchedProgram, 0, len(scored))
	for _, s := range scored {
		out = append(out, models.MatchedProgram{
			ID:           s.ID,
			Title:        s.Title,
			Description:  s.Description,
			Category:     s.Category,
			Provider:     models.Provider{Name: s.ProviderName, Type: s.ProviderType},
			AmountMin:    s.AmountMin,
			AmountMax:    s.AmountMax,
			SupportRate:  s.SupportRate,
			Region:       s.Region,
			Deadline:     s.Deadline,
			MatchScore:   s.FinalScore,
			MatchReasons: s.MatchReasons,
		})
	}
	return out
}

func buildSummary(matches []models.MatchedProgram) models.MatchSummary {
	summary := models.MatchSummary{CategoryCounts: map[string]int{}}
	if len(matches) == 0 {
		return summary
	}

	summary.BestMatch = matches[0].Title
	total := 0.0
	for _, m := range matches {
		summary.CategoryCounts[m.Category]++
		total += m.MatchScore
	}
	summary.AverageScore = total / float64(len(matches))
	return summary
}

func buildRecommendations(matches []models.MatchedProgram, now time.Time) []string {
	if len(matches) == 0 {
		return nil
	}

	recs := []string{
		fmt.Sprintf("Start with %q, your strongest match", matches[0].Title),
	}
	if len(matches) > 3 {
		recs = append(recs, fmt.Sprintf("You qualify for %d programs in total, review the full list", len(matches)))
	}

	cutoff := now.AddDate(0, 0, closingSoonDays)
	closing := 0
	for _, m := range matches {
		if m.Deadline != nil && m.Deadline.After(now) && m.Deadline.Before(cutoff) {
			closing++
		}
	}
	if closing > 0 {
		recs = append(recs, fmt.Sprintf("%d matched programs close within %d days, apply early", closing, closingSoonDays))
	}
	return recs
}

func emptyResultRecommendations(profile *models.RequesterProfile) []string {
	recs := []string{
		"Consider broadening your target support categories",
	}
	if profile.SupportPreferences.UrgencyTier == models.UrgencyImmediate {
		recs = append(recs, "Extending your timeline may open programs with later deadlines")
	}
	if profile.CompanyScale.Region != "" {
		recs = append(recs, "Some nationwide programs may open in the next application cycle")
	}
	return recs
}
