// internal/matching/reasoning/corpus.go
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stderrors "govmatch/internal/common/errors"
	"govmatch/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrSearchFailed = errors.New(string(stderrors.ErrCodeSearchQueryFailed))
)

// CorpusHit is one retrieved document from the pre-indexed program corpus.
type CorpusHit struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

// CorpusSearch retrieves programs from the pre-indexed corpus by a
// natural-language profile description.
type CorpusSearch interface {
	Search(ctx context.Context, queryText string, size int) ([]CorpusHit, error)
}

// CorpusSearcher is the Elasticsearch-backed corpus retrieval used by the
// Tier-1 reasoning path.
type CorpusSearcher struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewCorpusSearcher(client *elasticsearch.Client, index string, log logger.Logger) *CorpusSearcher {
	return &CorpusSearcher{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "corpus-searcher"}),
	}
}

// Search runs a multi_match query over the corpus and returns the best hits.
func (cs *CorpusSearcher) Search(ctx context.Context, queryText string, size int) ([]CorpusHit, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  queryText,
				"fields": []string{"title^3", "description^2", "tags"},
				"type":   "best_fields",
			},
		},
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{cs.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, cs.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Title       string `json:"title"`
					Description string `json:"description"`
					Category    string `json:"category"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchFailed, err)
	}

	hits := make([]CorpusHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, CorpusHit{
			ID:          h.ID,
			Score:       h.Score,
			Title:       h.Source.Title,
			Description: h.Source.Description,
			Category:    h.Source.Category,
		})
	}

	cs.logger.Debug("corpus search completed", map[string]interface{}{
		"query":    queryText,
		"hitCount": len(hits),
	})

	return hits, nil
}
