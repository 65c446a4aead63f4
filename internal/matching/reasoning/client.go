// internal/matching/reasoning/client.go
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"govmatch/internal/common/config"
	stderrors "govmatch/internal/common/errors"
	commonhttp "govmatch/internal/common/http"
	"govmatch/internal/common/logger"
	"govmatch/internal/models"
)

var (
	ErrReasoningTimeout = errors.New(string(stderrors.ErrCodeReasoningTimeout))
	ErrReasoningFailed  = errors.New(string(stderrors.ErrCodeReasoningFailed))
)

// Judgment is one reasoning-service verdict about a candidate program.
type Judgment struct {
	ProgramID  string   `json:"programId"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Confidence float64  `json:"confidence"`
}

// Judge is the reasoning-service capability contract: one call judging a
// retrieved candidate set, and one call judging a single candidate. Both are
// bounded by a hard timeout and safe to retry or fall back on failure.
type Judge interface {
	JudgeBatch(ctx context.Context, profileSummary string, retrieved []CorpusHit, candidates []models.ScoredProgram) ([]Judgment, error)
	JudgeSingle(ctx context.Context, profileSummary string, candidate models.ScoredProgram) (*Judgment, error)
}

// Client talks to the external reasoning service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	timeout    time.Duration
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(cfg config.ReasoningConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    timeout,
		httpClient: commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "reasoning-client"}),
	}
}

type judgeRequest struct {
	Model      string           `json:"model"`
	Profile    string           `json:"profile"`
	Retrieved  []CorpusHit      `json:"retrieved,omitempty"`
	Candidates []judgeCandidate `json:"candidates"`
}

type judgeCandidate struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	BaseScore   float64 `json:"baseScore"`
}

type judgeResponse struct {
	Judgments []Judgment `json:"judgments"`
}

// JudgeBatch submits the profile plus the retrieved corpus context and asks
// the service to judge the whole candidate set in one call.
func (c *Client) JudgeBatch(ctx context.Context, profileSummary string, retrieved []CorpusHit, candidates []models.ScoredProgram) ([]Judgment, error) {
	req := judgeRequest{
		Model:      c.model,
		Profile:    profileSummary,
		Retrieved:  retrieved,
		Candidates: toJudgeCandidates(candidates),
	}

	var resp judgeResponse
	if err := c.post(ctx, "/api/ai/judge", req, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Judgments {
		resp.Judgments[i].Confidence = clampConfidence(resp.Judgments[i].Confidence)
	}

	c.logger.Info("batch judgment received", map[string]interface{}{
		"candidateCount": len(candidates),
		"judgmentCount":  len(resp.Judgments),
	})

	return resp.Judgments, nil
}

// JudgeSingle submits one candidate with the profile and returns one verdict.
func (c *Client) JudgeSingle(ctx context.Context, profileSummary string, candidate models.ScoredProgram) (*Judgment, error) {
	req := judgeRequest{
		Model:      c.model,
		Profile:    profileSummary,
		Candidates: toJudgeCandidates([]models.ScoredProgram{candidate}),
	}

	var resp judgeResponse
	if err := c.post(ctx, "/api/ai/judge/single", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Judgments) == 0 {
		return nil, fmt.Errorf("%w: empty judgment for %s", ErrReasoningFailed, candidate.ID)
	}

	j := resp.Judgments[0]
	if j.ProgramID == "" {
		j.ProgramID = candidate.ID
	}
	j.Confidence = clampConfidence(j.Confidence)
	return &j, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReasoningFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrReasoningTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReasoningFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ErrReasoningTimeout
			}
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				continue
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode error: %v", ErrReasoningFailed, err)
		}
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return ErrReasoningTimeout
	}
	return fmt.Errorf("%w: %v", ErrReasoningFailed, lastErr)
}

func toJudgeCandidates(candidates []models.ScoredProgram) []judgeCandidate {
	out := make([]judgeCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, judgeCandidate{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Category:    c.Category,
			BaseScore:   c.CompositeScore,
		})
	}
	return out
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
