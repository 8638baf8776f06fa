package ai

import (
	"context"

	"github.com/spigell/resume-roles/internal/matcher"
)

// Assessment is an advisory opinion about a ranked role. It never changes scores.
type Assessment struct {
	Fit    bool    `json:"fit"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
	Advice string  `json:"advice"`
	Raw    string  `json:"-"`
}

// Reviewer gives a second opinion on how well the résumé fits a role.
type Reviewer interface {
	Review(ctx context.Context, resumeText string, result matcher.Result) (*Assessment, error)
}
