// internal/matching/reasoning/session.go
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govmatch/internal/common/config"
	stderrors "govmatch/internal/common/errors"
	"govmatch/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
)

// Session is the process-wide reasoning configuration: the corpus index the
// retrieval tier searches and the agent model the judgment calls name.
//
// Lifecycle: set once during startup by Initialize, optionally replaced by an
// explicit re-initialization, read-only otherwise. It is never mutated per
// request, so no locking is needed.
type Session struct {
	CorpusIndex string
	AgentModel  string
}

// Initialize waits until the program corpus index is searchable and returns
// the session handle. It polls the document count on a fixed interval and
// fails loudly after the configured deadline; the caller decides whether to
// continue without the retrieval tier.
func Initialize(ctx context.Context, es *elasticsearch.Client, cfg config.ReasoningConfig, log logger.Logger) (Session, error) {
	session := Session{
		CorpusIndex: cfg.CorpusIndex,
		AgentModel:  cfg.Model,
	}

	deadline := time.Now().Add(time.Duration(cfg.ReadyTimeout) * time.Second)
	interval := time.Duration(cfg.ReadyPollInterval) * time.Second

	var lastErr error
	for {
		count, err := corpusCount(ctx, es, cfg.CorpusIndex)
		if err == nil && count > 0 {
			log.Info("program corpus ready", map[string]interface{}{
				"index":         cfg.CorpusIndex,
				"documentCount": count,
			})
			return session, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return session, stderrors.NewCorpusNotReadyError(cfg.CorpusIndex, lastErr)
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return session, stderrors.NewCorpusNotReadyError(cfg.CorpusIndex, ctx.Err())
		}
	}
}

// Reinitialize replaces the session after a corpus rebuild.
func Reinitialize(ctx context.Context, es *elasticsearch.Client, cfg config.ReasoningConfig, log logger.Logger) (Session, error) {
	log.Info("reinitializing reasoning session", map[string]interface{}{
		"index": cfg.CorpusIndex,
	})
	return Initialize(ctx, es, cfg, log)
}

func corpusCount(ctx context.Context, es *elasticsearch.Client, index string) (int, error) {
	res, err := es.Count(
		es.Count.WithContext(ctx),
		es.Count.WithIndex(index),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("corpus count error: %s", res.Status())
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}
