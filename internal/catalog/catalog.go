// Package catalog loads the job-role catalog the résumé is matched against.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field selects which role text feeds the matcher.
type Field string

const (
	FieldDescription Field = "description"
	FieldSkills      Field = "skills"
	FieldBoth        Field = "both"
)

const (
	columnRole        = "role"
	columnDescription = "description"
	columnSkills      = "skills"
)

var (
	// ErrUnavailable is returned when the catalog source cannot be read.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrSchema is returned when the catalog content is malformed.
	ErrSchema = errors.New("malformed catalog")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Role is a single catalog entry. Position is its zero-based row index.
type Role struct {
	Position    int    `json:"position" validate:"gte=0"`
	Name        string `json:"role" validate:"required"`
	Description string `json:"description"`
	Skills      string `json:"skills,omitempty"`
}

// Catalog is the ordered, read-only list of roles plus the matched-text field.
type Catalog struct {
	Roles []Role `validate:"required,min=1,dive"`
	Field Field  `validate:"oneof=description skills both"`
}

// ParseField converts a configuration value into a Field. Empty means description.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FieldDescription, nil
	case FieldDescription, FieldSkills, FieldBoth:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown match field %q", ErrSchema, s)
	}
}

// Load reads a CSV catalog from path.
func Load(path string, field Field) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer file.Close()

	c, err := Parse(file, field)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %q: %w", path, err)
	}

	return c, nil
}

// Parse reads a CSV catalog with a header row. Role and Description columns
// are required; Skills is required only when the field uses it.
func Parse(r io.Reader, field Field) (*Catalog, error) {
	if field == "" {
		field = FieldDescription
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	columns := indexColumns(header)
	required := []string{columnRole, columnDescription}
	if field == FieldSkills || field == FieldBoth {
		required = append(required, columnSkills)
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchema, name)
		}
	}

	roles := make([]Role, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchema, err)
		}

		roles = append(roles, Role{
			Position:    len(roles),
			Name:        column(record, columns, columnRole),
			Description: column(record, columns, columnDescription),
			Skills:      column(record, columns, columnSkills),
		})
	}

	c := &Catalog{Roles: roles, Field: field}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks the catalog invariants: at least one role, every role named,
// and a known matched-text field.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrSchema, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

// Len returns the number of roles.
func (c *Catalog) Len() int {
	return len(c.Roles)
}

// MatchText returns the text of the role used for matching, according to the catalog field.
func (c *Catalog) MatchText(role Role) string {
	switch c.Field {
	case FieldSkills:
		return role.Skills
	case FieldBoth:
		return strings.TrimSpace(role.Description + "\n" + role.Skills)
	default:
		return role.Description
	}
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}

func column(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
