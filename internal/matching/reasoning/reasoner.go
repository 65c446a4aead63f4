// internal/matching/reasoning/reasoner.go
package reasoning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"govmatch/internal/common/config"
	"govmatch/internal/common/logger"
	"govmatch/internal/common/metrics"
	"govmatch/internal/models"
)

const (
	tierCorpus = "corpus"
	tierBatch  = "batch"
	tierLocal  = "local"

	maxReasons = 5
	minReasons = 3

	corpusRetrievalSize = 5
)

// Reasoner runs the final reranking stage. It tries increasingly cheaper
// strategies until one yields judgments, and always returns a ranked result
// even when every remote tier is unavailable.
type Reasoner struct {
	judge      Judge
	corpus     CorpusSearch
	rules      *Enhancer
	threshold  float64
	batchSize  int
	batchDelay time.Duration
	finalLimit int
	logger     logger.Logger
}

func NewReasoner(session Session, judge Judge, corpus CorpusSearch, rules *Enhancer, cfg config.ReasoningConfig, finalLimit int, log logger.Logger) *Reasoner {
	return &Reasoner{
		judge:      judge,
		corpus:     corpus,
		rules:      rules,
		threshold:  cfg.ConfidenceThreshold,
		batchSize:  cfg.BatchSize,
		batchDelay: time.Duration(cfg.BatchDelay) * time.Millisecond,
		finalLimit: finalLimit,
		logger: log.WithFields(map[string]interface{}{
			"component":    "reasoner",
			"corpus_index": session.CorpusIndex,
			"model":        session.AgentModel,
		}),
	}
}

// Rerank applies the tiered reasoning strategies to the scored candidates
// and returns the top matches ordered by final score. It never returns an
// error: a failed tier falls through to the next one, and the local rule
// tier always succeeds.
func (r *Reasoner) Rerank(ctx context.Context, profile *models.RequesterProfile, candidates []models.ScoredProgram) []models.ScoredProgram {
	if len(candidates) == 0 {
		return nil
	}

	summary := buildProfileSummary(profile)
	judgments := r.collectJudgments(ctx, summary, candidates)

	merged := make([]models.ScoredProgram, 0, len(candidates))
	for _, c := range candidates {
		j, ok := judgments[c.ID]
		if ok && j.Confidence > r.threshold {
			c.FinalScore = clampConfidence(j.Score)
			c.Confidence = j.Confidence
			c.MatchReasons = append(c.MatchReasons, j.Reasons...)
		} else {
			c = r.rules.Enhance(profile, c)
		}
		c.MatchReasons = finalizeReasons(c.MatchReasons, &c)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})
	if len(merged) > r.finalLimit {
		merged = merged[:r.finalLimit]
	}
	return merged
}

// collectJudgments walks the tier chain and returns the judgments of the
// first tier that yields any, keyed by program id. A tier that errors or
// comes back empty falls through to the next; an empty map sends every
// candidate to the local rule tier.
func (r *Reasoner) collectJudgments(ctx context.Context, summary string, candidates []models.ScoredProgram) map[string]Judgment {
	if r.judge != nil {
		judgments, err := r.corpusTier(ctx, summary, candidates)
		if err == nil && len(judgments) > 0 {
			metrics.ReasoningTierTotal.WithLabelValues(tierCorpus, "success").Inc()
			return judgments
		}
		metrics.ReasoningTierTotal.WithLabelValues(tierCorpus, "failure").Inc()
		fields := map[string]interface{}{}
		if err != nil {
			fields["error"] = err.Error()
		}
		r.logger.Warn("corpus tier yielded no judgments, falling back to per-item batches", fields)

		if judgments := r.batchTier(ctx, summary, candidates); len(judgments) > 0 {
			metrics.ReasoningTierTotal.WithLabelValues(tierBatch, "success").Inc()
			return judgments
		}
		metrics.ReasoningTierTotal.WithLabelValues(tierBatch, "failure").Inc()
		r.logger.Warn("batch tier yielded no judgments, using local rules", nil)
	}

	metrics.ReasoningTierTotal.WithLabelValues(tierLocal, "success").Inc()
	return map[string]Judgment{}
}

// corpusTier retrieves supporting context from the program corpus and asks
// the judge to rank all candidates in a single call.
func (r *Reasoner) corpusTier(ctx context.Context, summary string, candidates []models.ScoredProgram) (map[string]Judgment, error) {
	var retrieved []CorpusHit
	if r.corpus != nil {
		hits, err := r.corpus.Search(ctx, summary, corpusRetrievalSize)
		if err != nil {
			return nil, err
		}
		retrieved = hits
	}

	judgments, err := r.judge.JudgeBatch(ctx, summary, retrieved, candidates)
	if err != nil {
		return nil, err
	}
	return indexJudgments(judgments), nil
}

// batchTier judges candidates one at a time, batchSize items concurrently,
// pausing between batches so a rate-limited judge can recover. Partial
// results are kept: an item whose call failed simply has no judgment.
func (r *Reasoner) batchTier(ctx context.Context, summary string, candidates []models.ScoredProgram) map[string]Judgment {
	results := make([]*Judgment, len(candidates))

	for start := 0; start < len(candidates); start += r.batchSize {
		end := start + r.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				j, err := r.judge.JudgeSingle(gctx, summary, candidates[i])
				if err != nil {
					r.logger.Debug("single judgment failed", map[string]interface{}{
						"program_id": candidates[i].ID,
						"error":      err.Error(),
					})
					return nil
				}
				results[i] = j
				return nil
			})
		}
		_ = g.Wait()

		if end < len(candidates) {
			select {
			case <-ctx.Done():
				return collectResults(results)
			case <-time.After(r.batchDelay):
			}
		}
	}

	return collectResults(results)
}

func collectResults(results []*Judgment) map[string]Judgment {
	out := make(map[string]Judgment)
	for _, j := range results {
		if j != nil {
			out[j.ProgramID] = *j
		}
	}
	return out
}

func indexJudgments(judgments []Judgment) map[string]Judgment {
	out := make(map[string]Judgment, len(judgments))
	for _, j := range judgments {
		out[j.ProgramID] = j
	}
	return out
}

// finalizeReasons dedupes, pads short lists from the sub-scores, and caps
// the result so every match carries a usable explanation set.
func finalizeReasons(reasons []string, c *models.ScoredProgram) []string {
	seen := make(map[string]bool, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		reason = strings.TrimSpace(reason)
		if reason == "" || seen[reason] {
			continue
		}
		seen[reason] = true
		out = append(out, reason)
	}

	for _, fallback := range subScoreReasons(c) {
		if len(out) >= minReasons {
			break
		}
		if !seen[fallback] {
			seen[fallback] = true
			out = append(out, fallback)
		}
	}

	if len(out) > maxReasons {
		out = out[:maxReasons]
	}
	return out
}

// subScoreReasons derives padding reasons from the strongest sub-scores.
func subScoreReasons(c *models.ScoredProgram) []string {
	type scored struct {
		score  float64
		reason string
	}
	pool := []scored{
		{c.SubScores.Category, "Supports your target business area"},
		{c.SubScores.Amount, "Funding scale is appropriate for your company"},
		{c.SubScores.Region, "Available in your region"},
		{c.SubScores.Deadline, "Application window fits your timeline"},
		{c.SubScores.CompanySize, "Open to companies of your size"},
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	out := make([]string, 0, len(pool))
	for _, p := range pool {
		if p.score >= 0.5 {
			out = append(out, p.reason)
		}
	}
	if len(out) == 0 {
		out = append(out, "Meets baseline eligibility requirements")
	}
	return out
}

// buildProfileSummary produces the compact textual profile passed to the
// judge and used as the corpus retrieval query.
func buildProfileSummary(p *models.RequesterProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", p.CompanyInfo.EntityType, p.CompanyInfo.Name)
	if p.CompanyScale.Region != "" {
		fmt.Fprintf(&b, " based in %s", p.CompanyScale.Region)
	}
	if p.CompanyScale.EmployeeBand != "" {
		fmt.Fprintf(&b, ", %s employees", p.CompanyScale.EmployeeBand)
	}
	if len(p.SupportPreferences.TargetCategories) > 0 {
		fmt.Fprintf(&b, ", seeking %s support", strings.Join(p.SupportPreferences.TargetCategories, ", "))
	}
	if p.CompanyInfo.PurposeText != "" {
		fmt.Fprintf(&b, ". Purpose: %s", p.CompanyInfo.PurposeText)
	}
	return b.String()
}
