package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/resume-roles/internal/matcher"
)

type minPercentFilter struct {
	disabled bool
	reason   string
	min      float64
}

// NewMinPercent creates a filter that drops roles scoring below the configured percent.
func NewMinPercent() Filter {
	return &minPercentFilter{}
}

func (f *minPercentFilter) Name() string { return "min_percent" }

func (f *minPercentFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minPercentFilter) IsEnabled() bool { return !f.disabled }

func (f *minPercentFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinPercent < 0 || cfg.MinPercent > 100 {
		return fmt.Errorf("minimum percent must be within [0,100], got %v", cfg.MinPercent)
	}
	f.min = cfg.MinPercent
	return nil
}

func (f *minPercentFilter) Apply(_ context.Context, _ Deps, results []matcher.Result) ([]matcher.Result, Step, error) {
	initial := len(results)
	if f.min == 0 {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r matcher.Result) bool {
		return r.MatchPercent >= f.min
	})

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *minPercentFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_percent": strconv.FormatFloat(f.min, 'f', -1, 64)},
	}
}
