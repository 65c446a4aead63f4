// internal/matching/reasoning/client_test.go
package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govmatch/internal/common/config"
	"govmatch/internal/common/logger"
	"govmatch/internal/models"
)

func clientConfig(baseURL string) config.ReasoningConfig {
	return config.ReasoningConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "judge-large",
		Timeout:    2000,
		MaxRetries: 2,
	}
}

func testCandidate() models.ScoredProgram {
	return models.ScoredProgram{
		Program: models.Program{
			ID:          "p-1",
			Title:       "Smart Factory Grant",
			Description: "Supports factory automation",
			Category:    "tech",
		},
		CompositeScore: 0.8,
	}
}

func TestJudgeSingle_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/judge/single", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "judge-large", req["model"])

		json.NewEncoder(w).Encode(judgeResponse{Judgments: []Judgment{
			{ProgramID: "p-1", Score: 0.92, Confidence: 0.85, Reasons: []string{"Strong fit"}},
		}})
	}))
	defer server.Close()

	c := NewClient(clientConfig(server.URL), logger.NewNoOpLogger())

	j, err := c.JudgeSingle(context.Background(), "profile", testCandidate())
	require.NoError(t, err)
	assert.Equal(t, "p-1", j.ProgramID)
	assert.InDelta(t, 0.92, j.Score, 1e-9)
	assert.InDelta(t, 0.85, j.Confidence, 1e-9)
}

func TestJudgeSingle_FillsMissingProgramID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(judgeResponse{Judgments: []Judgment{
			{Score: 0.7, Confidence: 1.5},
		}})
	}))
	defer server.Close()

	c := NewClient(clientConfig(server.URL), logger.NewNoOpLogger())

	j, err := c.JudgeSingle(context.Background(), "profile", testCandidate())
	require.NoError(t, err)
	assert.Equal(t, "p-1", j.ProgramID)
	// Out-of-range confidence is clamped.
	assert.InDelta(t, 1.0, j.Confidence, 1e-9)
}

func TestJudgeBatch_RetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(judgeResponse{Judgments: []Judgment{
			{ProgramID: "p-1", Score: 0.9, Confidence: 0.8},
		}})
	}))
	defer server.Close()

	c := NewClient(clientConfig(server.URL), logger.NewNoOpLogger())

	judgments, err := c.JudgeBatch(context.Background(), "profile", nil, []models.ScoredProgram{testCandidate()})
	require.NoError(t, err)
	require.Len(t, judgments, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestJudgeBatch_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(clientConfig(server.URL), logger.NewNoOpLogger())

	_, err := c.JudgeBatch(context.Background(), "profile", nil, []models.ScoredProgram{testCandidate()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReasoningFailed)
}

func TestJudgeSingle_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(judgeResponse{})
	}))
	defer server.Close()

	c := NewClient(clientConfig(server.URL), logger.NewNoOpLogger())

	_, err := c.JudgeSingle(context.Background(), "profile", testCandidate())
	assert.ErrorIs(t, err, ErrReasoningFailed)
}
