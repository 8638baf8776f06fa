package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/matcher"
)

type excludedRolesFilter struct {
	disabled bool
	reason   string
	roles    []string
}

// NewExcludedRoles creates a filter that removes roles listed in the config.
func NewExcludedRoles() Filter {
	return &excludedRolesFilter{}
}

func (f *excludedRolesFilter) Name() string { return "excluded_roles" }

func (f *excludedRolesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludedRolesFilter) IsEnabled() bool { return !f.disabled }

func (f *excludedRolesFilter) Validate(cfg *Config) error {
	f.roles = nil
	if cfg != nil {
		for _, role := range cfg.ExcludeRoles {
			if role = strings.TrimSpace(role); role != "" {
				f.roles = append(f.roles, role)
			}
		}
	}
	return nil
}

func (f *excludedRolesFilter) Apply(_ context.Context, deps Deps, results []matcher.Result) ([]matcher.Result, Step, error) {
	initial := len(results)
	if len(f.roles) == 0 {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r matcher.Result) bool {
		return !containsFold(f.roles, r.Role)
	})

	if len(dropped) > 0 {
		deps.Logger.Info("excluding roles by config",
			zap.Strings("excluded_roles", dropped),
			zap.Int("roles_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludedRolesFilter) Status() Status {
	details := map[string]string{}
	if len(f.roles) > 0 {
		details["roles"] = strings.Join(f.roles, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
