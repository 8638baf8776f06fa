package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/resume-roles/internal/matcher"
)

type topFilter struct {
	disabled bool
	reason   string
	top      int
}

// NewTop creates a filter that keeps the first N results. Zero keeps all.
func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *topFilter) IsEnabled() bool { return !f.disabled }

func (f *topFilter) Validate(cfg *Config) error {
	f.top = 0
	if cfg == nil {
		return nil
	}
	if cfg.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", cfg.Top)
	}
	f.top = cfg.Top
	return nil
}

func (f *topFilter) Apply(_ context.Context, _ Deps, results []matcher.Result) ([]matcher.Result, Step, error) {
	initial := len(results)
	if f.top == 0 || initial <= f.top {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	return results[:f.top], Step{Initial: initial, Dropped: initial - f.top, Left: f.top}, nil
}

func (f *topFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"top": strconv.Itoa(f.top)},
	}
}
