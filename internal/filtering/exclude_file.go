package filtering

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/resume-roles/internal/matcher"
)

// ExcludedRoles is the content of an exclude file.
type ExcludedRoles struct {
	Items []*ExcludedRole
}

// ExcludedRole is a role hidden from future reports.
type ExcludedRole struct {
	Role         string
	MatchPercent float64
	ExcludedAt   time.Time
}

// ToExcluded converts results into exclude file entries stamped with now.
func ToExcluded(results []matcher.Result) *ExcludedRoles {
	excluded := &ExcludedRoles{}
	for _, r := range results {
		excluded.Items = append(excluded.Items, &ExcludedRole{
			Role:         r.Role,
			MatchPercent: r.MatchPercent,
			ExcludedAt:   time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedRolesFromFile reads an exclude file. A missing or empty file is an empty list.
func GetExcludedRolesFromFile(path string) (*ExcludedRoles, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedRoles{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedRoles{}, nil
	}

	var excluded ExcludedRoles
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose role is not listed yet.
func (e *ExcludedRoles) Append(s *ExcludedRoles) {
	for _, item := range s.Items {
		if containsFold(e.Roles(), item.Role) {
			continue
		}
		e.Items = append(e.Items, item)
	}
}

// Roles returns the excluded role names.
func (e *ExcludedRoles) Roles() []string {
	roles := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		roles = append(roles, item.Role)
	}
	return roles
}

// ToFile writes the list as indented JSON.
func (e *ExcludedRoles) ToFile(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
