// Package analyzer runs the résumé pipeline: extraction, normalization and
// role ranking, substituting fallback text when a document yields none.
package analyzer

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/extract"
	"github.com/spigell/resume-roles/internal/logger"
	"github.com/spigell/resume-roles/internal/matcher"
)

// DefaultFallbackText is used when no document is supplied or nothing could be extracted.
const DefaultFallbackText = "Experienced Python developer skilled in AI, data science, and web development."

const previewLength = 120

// Source tells where the analyzed text came from.
type Source string

const (
	SourceDocument Source = "document"
	SourceFallback Source = "fallback"
	SourceText     Source = "text"
)

// Analysis is the outcome of one pipeline run.
type Analysis struct {
	RunID      string
	Source     Source
	Extraction *extract.Result
	Text       string
	Tokens     []string
	Results    []matcher.Result
}

// Best returns the top-ranked role.
func (a *Analysis) Best() (matcher.Result, bool) {
	if a == nil || len(a.Results) == 0 {
		return matcher.Result{}, false
	}
	return a.Results[0], true
}

// Config holds pipeline settings.
type Config struct {
	FallbackText string
}

// Deps aggregates the pipeline collaborators.
type Deps struct {
	Extractor  *extract.Extractor
	Normalizer matcher.Normalizer
	Index      *matcher.Index
	Logger     *zap.Logger
}

// Analyzer wires extractor, normalizer and a prebuilt catalog index.
type Analyzer struct {
	fallback   string
	extractor  *extract.Extractor
	normalizer matcher.Normalizer
	index      *matcher.Index
	logger     *zap.Logger
}

// New validates the dependencies and creates an Analyzer.
func New(cfg Config, deps Deps) (*Analyzer, error) {
	if deps.Normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	if deps.Index == nil {
		return nil, errors.New("catalog index is required")
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	extractor := deps.Extractor
	if extractor == nil {
		extractor = extract.New(log)
	}

	fallback := strings.TrimSpace(cfg.FallbackText)
	if fallback == "" {
		fallback = DefaultFallbackText
	}

	return &Analyzer{
		fallback:   fallback,
		extractor:  extractor,
		normalizer: deps.Normalizer,
		index:      deps.Index,
		logger:     log,
	}, nil
}

// Analyze extracts, normalizes and ranks a document. An empty document or
// one without extractable text is replaced by the fallback text.
func (a *Analyzer) Analyze(document []byte) *Analysis {
	analysis := &Analysis{RunID: uuid.NewString()}
	log := logger.WithRun(a.logger, analysis.RunID)

	if len(document) == 0 {
		log.Info("no document supplied, using fallback text")
		analysis.Source = SourceFallback
		analysis.Text = a.fallback
		return a.rank(analysis, log)
	}

	res := a.extractor.Inspect(document)
	analysis.Extraction = &res

	if res.Empty() {
		log.Warn("could not extract text from the document, using fallback text",
			zap.String("kind", string(res.Kind)),
			zap.Error(res.Err),
		)
		analysis.Source = SourceFallback
		analysis.Text = a.fallback
		return a.rank(analysis, log)
	}

	analysis.Source = SourceDocument
	analysis.Text = res.Text
	return a.rank(analysis, log)
}

// AnalyzeText ranks already extracted text. Blank text is not replaced: every
// role then scores zero.
func (a *Analyzer) AnalyzeText(text string) *Analysis {
	analysis := &Analysis{RunID: uuid.NewString(), Source: SourceText, Text: text}
	return a.rank(analysis, logger.WithRun(a.logger, analysis.RunID))
}

func (a *Analyzer) rank(analysis *Analysis, log *zap.Logger) *Analysis {
	analysis.Tokens = a.normalizer.Normalize(analysis.Text)
	analysis.Results = a.index.Rank(analysis.Tokens)

	log.Debug("resume analyzed",
		zap.String(logger.FieldSource, string(analysis.Source)),
		zap.Int("text_length", utf8.RuneCountInString(analysis.Text)),
		zap.String("text_preview", logger.TruncateForLog(analysis.Text, previewLength)),
		zap.Int("tokens", len(analysis.Tokens)),
	)

	if best, ok := analysis.Best(); ok {
		log.Info("best match",
			zap.String("role", best.Role),
			zap.Float64("match_percent", best.MatchPercent),
			zap.String(logger.FieldSource, string(analysis.Source)),
		)
	}

	return analysis
}
