// Package retrieval implements semantic question-bank search with a keyword
// fallback. Queries are matched against memoized corpus embeddings by cosine
// similarity; when the embedding backend is unavailable the engine degrades to
// keyword overlap scoring instead of failing.
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
)

// Result is a corpus entry paired with its relevance score. Semantic scores
// are cosine similarities; fallback scores are keyword overlap ratios in (0,1].
type Result struct {
	Entry
	Score float64 `json:"score"`
}

// Filter narrows a search to a category and/or difficulty band. Zero values
// mean no filtering.
type Filter struct {
	Category      string
	MinDifficulty int
	MaxDifficulty int
}

func (f Filter) matches(e Entry) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.MinDifficulty > 0 && e.Difficulty < f.MinDifficulty {
		return false
	}
	if f.MaxDifficulty > 0 && e.Difficulty > f.MaxDifficulty {
		return false
	}
	return true
}

// Engine retrieves question-bank entries for a query.
//
// Contract:
//   - Search never returns an error; embedding failures degrade to keyword overlap
//   - corpus embeddings are computed once and memoized for the engine lifetime
//   - returned entries are copies; callers may not mutate the corpus through them
type Engine struct {
	embedder provider.Embedder
	logger   logging.Logger
	corpus   []Entry

	mu      sync.Mutex
	vectors [][]float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCorpus replaces the default question bank.
func WithCorpus(corpus []Entry) Option {
	return func(e *Engine) { e.corpus = corpus }
}

// New creates an Engine backed by the given embedder and the default corpus.
func New(embedder provider.Embedder, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		logger:   logging.NoOpLogger{},
		corpus:   DefaultCorpus(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CorpusSize returns the number of entries in the question bank.
func (e *Engine) CorpusSize() int { return len(e.corpus) }

// Search returns up to topK entries ranked by semantic similarity to query.
// When the query or corpus cannot be embedded it falls back to keyword
// overlap; either way the result slice is the best the engine can do and an
// empty slice simply means nothing matched.
func (e *Engine) Search(ctx context.Context, query string, topK int, filter Filter) []Result {
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil || len(queryVec) == 0 {
		e.logger.Warn("query embedding unavailable, using keyword fallback", "error", err)
		return e.keywordSearch(query, topK, filter)
	}
	vectors, err := e.corpusVectors(ctx)
	if err != nil {
		e.logger.Warn("corpus embedding unavailable, using keyword fallback", "error", err)
		return e.keywordSearch(query, topK, filter)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(e.corpus))
	for i := range e.corpus {
		ranked = append(ranked, scored{idx: i, score: cosine(queryVec, vectors[i])})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	results := make([]Result, 0, topK)
	for _, r := range ranked {
		if len(results) >= topK {
			break
		}
		entry := e.corpus[r.idx]
		if !filter.matches(entry) {
			continue
		}
		results = append(results, Result{Entry: entry, Score: r.score})
	}
	e.logger.Debug("semantic search completed", "query", query, "results", len(results))
	return results
}

// SearchByKeywords joins keywords into a single query and searches.
func (e *Engine) SearchByKeywords(ctx context.Context, keywords []string, topK int, filter Filter) []Result {
	return e.Search(ctx, strings.Join(keywords, " "), topK, filter)
}

var stageCategories = map[string]string{
	"self_intro":         "自我介绍",
	"project_deep_dive":  "项目经验",
	"basic_knowledge":    "基础知识",
	"scenario_algorithm": "场景算法",
	"reverse_interview":  "反问环节",
}

// QuestionsByStage returns up to topK entries whose category belongs to the
// given interview stage, without consulting the embedder.
func (e *Engine) QuestionsByStage(stage string, topK int) []Result {
	if topK <= 0 {
		topK = 3
	}
	category, ok := stageCategories[stage]
	if !ok {
		category = "通用"
	}
	results := make([]Result, 0, topK)
	for _, entry := range e.corpus {
		if len(results) >= topK {
			break
		}
		if strings.HasPrefix(entry.Category, category) || containsTag(entry.Tags, category) {
			results = append(results, Result{Entry: entry, Score: 1.0})
		}
	}
	return results
}

// keywordSearch scores each entry by the fraction of query tokens appearing
// in its question text, category or tags. Entries with zero overlap are
// excluded so a populated result always carries a positive score.
func (e *Engine) keywordSearch(query string, topK int, filter Filter) []Result {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	results := make([]Result, 0, topK)
	for _, entry := range e.corpus {
		if !filter.matches(entry) {
			continue
		}
		combined := strings.ToLower(entry.Question + " " + entry.Category + " " + strings.Join(entry.Tags, " "))
		hits := 0
		for _, token := range tokens {
			if strings.Contains(combined, token) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, Result{
			Entry: entry,
			Score: float64(hits) / float64(len(tokens)),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// corpusVectors embeds every corpus entry on first use and memoizes the
// vectors. Entries are embedded as "category: question" so the category
// contributes to the match.
func (e *Engine) corpusVectors(ctx context.Context) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.vectors != nil {
		return e.vectors, nil
	}
	vectors := make([][]float64, len(e.corpus))
	for i, entry := range e.corpus {
		vec, err := e.embedder.Embed(ctx, entry.Category+": "+entry.Question)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	e.vectors = vectors
	return vectors, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-8)
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
