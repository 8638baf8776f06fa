package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/matcher"
)

type excludeFileFilter struct {
	disabled bool
	reason   string
	path     string
}

// NewExcludeFile creates a filter that removes roles contained in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, results []matcher.Result) ([]matcher.Result, Step, error) {
	initial := len(results)
	if f.path == "" {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := GetExcludedRolesFromFile(f.path)
	if err != nil {
		return results, Step{}, fmt.Errorf("getting excluded roles from file: %w", err)
	}

	roles := excluded.Roles()
	kept, dropped := keep(results, func(r matcher.Result) bool {
		return !containsFold(roles, r.Role)
	})

	if len(dropped) > 0 {
		deps.Logger.Info("excluding roles based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_roles", dropped),
			zap.Int("roles_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
