// internal/matching/relevance/relevance.go
package relevance

import (
	"sort"
	"strings"
	"unicode"

	"govmatch/internal/common/logger"
	"govmatch/internal/models"
)

// Filter scores textual relevance between the requester's stated purpose and
// each candidate's title, description, and tags, keeping the top candidates.
//
// This is deliberately a cheap lexical proxy for semantic similarity. The
// contract (purpose text + candidates in, ranked subset out) is the stable
// part; the heuristic behind it can be swapped for an embedding-based
// measure without touching downstream stages.
type Filter struct {
	maxResults  int
	maxKeywords int
	stopWords   map[string]struct{}
	logger      logger.Logger
}

const (
	titleWeight       = 3
	descriptionWeight = 2
	tagWeight         = 1
)

var defaultStopWords = []string{
	"a", "an", "the", "and", "or", "but", "for", "with", "about", "into",
	"our", "your", "their", "this", "that", "these", "those", "from", "have",
	"has", "are", "is", "was", "will", "would", "want", "wants", "need",
	"needs", "to", "of", "in", "on", "at", "by", "as", "we", "be", "it",
	"company", "business",
}

func New(maxResults int, log logger.Logger) *Filter {
	stop := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	return &Filter{
		maxResults:  maxResults,
		maxKeywords: 10,
		stopWords:   stop,
		logger:      log.WithFields(map[string]interface{}{"stage": "relevance-filter"}),
	}
}

// Apply ranks the candidates by lexical overlap with the purpose text and
// returns at most maxResults of them. An empty purpose or candidate set
// short-circuits to the first maxResults candidates unscored.
func (f *Filter) Apply(purposeText string, programs []models.Program) []models.Program {
	if len(programs) == 0 {
		return programs
	}

	keywords := f.ExtractKeywords(purposeText)
	if len(keywords) == 0 {
		return f.cap(programs)
	}

	type scored struct {
		program models.Program
		score   int
	}

	items := make([]scored, 0, len(programs))
	for _, p := range programs {
		items = append(items, scored{program: p, score: f.score(keywords, &p)})
	}

	// Stable sort keeps the repository's deadline ordering for ties.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]models.Program, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, it.program)
	}

	f.logger.Debug("relevance filter applied", map[string]interface{}{
		"keywords":    keywords,
		"inputCount":  len(programs),
		"outputCount": min(len(ranked), f.maxResults),
	})

	return f.cap(ranked)
}

// ExtractKeywords tokenizes the purpose text, strips punctuation and stop
// words, and keeps at most maxKeywords tokens longer than one rune.
func (f *Filter) ExtractKeywords(purposeText string) []string {
	fields := strings.FieldsFunc(strings.ToLower(purposeText), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range fields {
		if len([]rune(tok)) <= 1 {
			continue
		}
		if _, stop := f.stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
		if len(keywords) >= f.maxKeywords {
			break
		}
	}
	return keywords
}

func (f *Filter) score(keywords []string, p *models.Program) int {
	title := strings.ToLower(p.Title)
	description := strings.ToLower(p.Description)

	score := 0
	for _, kw := range keywords {
		score += titleWeight * strings.Count(title, kw)
		score += descriptionWeight * strings.Count(description, kw)
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				score += tagWeight
			}
		}
	}
	return score
}

func (f *Filter) cap(programs []models.Program) []models.Program {
	if len(programs) > f.maxResults {
		return programs[:f.maxResults]
	}
	return programs
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
