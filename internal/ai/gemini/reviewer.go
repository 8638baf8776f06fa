package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/ai"
	"github.com/spigell/resume-roles/internal/logger"
	"github.com/spigell/resume-roles/internal/matcher"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxResumeRunes      = 12000
)

// Reviewer asks Gemini for an advisory assessment of a ranked role.
type Reviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewReviewer creates a Reviewer. Non-positive maxLogLength uses the default preview length.
func NewReviewer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Review implements ai.Reviewer.
func (r *Reviewer) Review(ctx context.Context, resumeText string, result matcher.Result) (*ai.Assessment, error) {
	if r.generator == nil {
		return nil, errors.New("gemini generator is required")
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.New("resume text is required")
	}
	if strings.TrimSpace(result.Role) == "" {
		return nil, errors.New("role is required")
	}

	prompt := buildPrompt(resumeText, result)

	r.logger.Debug("gemini generate content request",
		zap.String("role", result.Role),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini generate content response",
		zap.String("role", result.Role),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildPrompt(resumeText string, result matcher.Result) string {
	resume := strings.TrimSpace(resumeText)
	if runes := []rune(resume); len(runes) > maxResumeRunes {
		resume = string(runes[:maxResumeRunes])
	}

	description := strings.TrimSpace(result.Description)
	if description == "" {
		description = "(no description)"
	}

	return strings.NewReplacer(
		"{{ROLE}}", result.Role,
		"{{MATCH_PERCENT}}", strconv.FormatFloat(result.MatchPercent, 'f', -1, 64),
		"{{DESCRIPTION}}", description,
		"{{RESUME}}", resume,
	).Replace(promptTemplate)
}

type reviewPayload struct {
	Fit    bool    `mapstructure:"fit"`
	Score  float64 `mapstructure:"score"`
	Reason string  `mapstructure:"reason"`
	Advice string  `mapstructure:"advice"`
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var payload reviewPayload
	if err := mapstructure.WeakDecode(data, &payload); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	score := payload.Score
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &ai.Assessment{
		Fit:    payload.Fit,
		Score:  score,
		Reason: strings.TrimSpace(payload.Reason),
		Advice: strings.TrimSpace(payload.Advice),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
