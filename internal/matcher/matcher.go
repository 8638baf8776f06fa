// Package matcher ranks catalog roles against a normalized résumé using
// TF-IDF term vectors and cosine similarity.
package matcher

import (
	"cmp"
	"math"
	"slices"

	"github.com/spigell/resume-roles/internal/catalog"
	"go.uber.org/zap"
)

const (
	defaultPrecision = 1
	maxPrecision     = 6
)

// Normalizer reduces text to lemma tokens. *nlp.Normalizer satisfies it.
type Normalizer interface {
	Normalize(text string) []string
}

// Result is the score of one catalog role.
type Result struct {
	Role         string  `json:"role"`
	MatchPercent float64 `json:"match_percent"`
	Description  string  `json:"description"`
	Position     int     `json:"position"`
}

// Matcher builds indexes over catalogs and scores résumés against them.
type Matcher struct {
	normalizer Normalizer
	precision  int
	logger     *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithPrecision sets the number of decimals MatchPercent is rounded to,
// clamped to 0..6.
func WithPrecision(decimals int) Option {
	return func(m *Matcher) {
		m.precision = clampPrecision(decimals)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Matcher. Role texts are normalized with the same normalizer
// the résumé is expected to go through.
func New(normalizer Normalizer, opts ...Option) *Matcher {
	m := &Matcher{
		normalizer: normalizer,
		precision:  defaultPrecision,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match scores every catalog role against the résumé tokens.
func (m *Matcher) Match(tokens []string, c *catalog.Catalog) []Result {
	return m.Index(c).Rank(tokens)
}

// Index precomputes the catalog vocabulary, document frequencies and role
// vectors. The catalog is only read.
func (m *Matcher) Index(c *catalog.Catalog) *Index {
	idx := &Index{
		vocabulary: make(map[string]int),
		precision:  m.precision,
		logger:     m.logger,
	}

	roleCounts := make([]map[int]float64, 0, c.Len())
	var df []float64

	for _, role := range c.Roles {
		counts := make(map[int]float64)
		for _, token := range m.normalizer.Normalize(c.MatchText(role)) {
			id, ok := idx.vocabulary[token]
			if !ok {
				id = len(idx.vocabulary)
				idx.vocabulary[token] = id
				df = append(df, 0)
			}
			if counts[id] == 0 {
				df[id]++
			}
			counts[id]++
		}
		roleCounts = append(roleCounts, counts)
		idx.roles = append(idx.roles, role)
	}

	n := float64(c.Len())
	idx.idf = make([]float64, len(df))
	for id, freq := range df {
		idx.idf[id] = math.Log((1+n)/(1+freq)) + 1
	}

	idx.vectors = make([]vector, len(roleCounts))
	for i, counts := range roleCounts {
		idx.vectors[i] = idx.weigh(counts)
	}

	m.logger.Debug("catalog indexed",
		zap.Int("roles", len(idx.roles)),
		zap.Int("vocabulary", len(idx.vocabulary)),
		zap.String("match_field", string(c.Field)),
	)

	return idx
}

// Index is an immutable TF-IDF view of a catalog.
type Index struct {
	roles      []catalog.Role
	vocabulary map[string]int
	idf        []float64
	vectors    []vector
	precision  int
	logger     *zap.Logger
}

// Len returns the number of indexed roles.
func (idx *Index) Len() int {
	return len(idx.roles)
}

// Rank scores every role against the résumé tokens and returns all of them,
// ordered by descending MatchPercent with ties kept in catalog order.
// Tokens outside the catalog vocabulary carry no weight; with no weighted
// tokens every role scores 0.
func (idx *Index) Rank(tokens []string) []Result {
	counts := make(map[int]float64)
	unknown := 0
	for _, token := range tokens {
		id, ok := idx.vocabulary[token]
		if !ok {
			unknown++
			continue
		}
		counts[id]++
	}

	resume := idx.weigh(counts)

	results := make([]Result, len(idx.roles))
	for i, role := range idx.roles {
		results[i] = Result{
			Role:         role.Name,
			MatchPercent: toPercent(cosine(resume, idx.vectors[i]), idx.precision),
			Description:  role.Description,
			Position:     role.Position,
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.MatchPercent, a.MatchPercent)
	})

	idx.logger.Debug("roles ranked",
		zap.Int("tokens", len(tokens)),
		zap.Int("out_of_vocabulary", unknown),
		zap.Int("roles", len(results)),
	)

	return results
}

func (idx *Index) weigh(counts map[int]float64) vector {
	v := make(vector, 0, len(counts))
	for id, tf := range counts {
		v = append(v, entry{id: id, weight: tf * idx.idf[id]})
	}
	slices.SortFunc(v, func(a, b entry) int { return cmp.Compare(a.id, b.id) })
	return v
}

func toPercent(similarity float64, precision int) float64 {
	if math.IsNaN(similarity) || similarity <= 0 {
		return 0
	}
	if similarity > 1 {
		similarity = 1
	}

	scale := math.Pow(10, float64(clampPrecision(precision)))
	return math.Round(similarity*100*scale) / scale
}

func clampPrecision(decimals int) int {
	return min(max(decimals, 0), maxPrecision)
}
