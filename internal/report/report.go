// Package report renders ranked roles for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spigell/resume-roles/internal/ai"
	"github.com/spigell/resume-roles/internal/matcher"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Report is everything shown for one run.
type Report struct {
	RunID   string           `json:"run_id"`
	Source  string           `json:"source"`
	Total   int              `json:"total"`
	Results []matcher.Result `json:"results"`
	Review  *ai.Assessment   `json:"review,omitempty"`
}

// Best returns the first shown result.
func (r *Report) Best() (matcher.Result, bool) {
	if r == nil || len(r.Results) == 0 {
		return matcher.Result{}, false
	}
	return r.Results[0], true
}

// Options tweak the table output.
type Options struct {
	Descriptions bool
}

// Render writes the report in the given format.
func Render(w io.Writer, format Format, r *Report, opts Options) error {
	if r == nil {
		return fmt.Errorf("nothing to render")
	}

	switch format {
	case FormatJSON:
		return renderJSON(w, r)
	case FormatTable, "":
		return renderTable(w, r, opts)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderJSON(w io.Writer, r *Report) error {
	out := *r
	if out.Results == nil {
		out.Results = []matcher.Result{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func renderTable(w io.Writer, r *Report, opts Options) error {
	if len(r.Results) == 0 {
		_, err := fmt.Fprintf(w, "No roles to show (%d ranked).\n", r.Total)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tROLE\tMATCH %")
	for i, res := range r.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, res.Role, Percent(res.MatchPercent))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if len(r.Results) < r.Total {
		fmt.Fprintf(w, "(showing %d of %d roles)\n", len(r.Results), r.Total)
	}

	best, _ := r.Best()
	fmt.Fprintf(w, "\nBest match: %s (%s)\n", best.Role, Percent(best.MatchPercent))

	if opts.Descriptions {
		fmt.Fprintln(w)
		for _, res := range r.Results {
			if err := Description(w, res); err != nil {
				return err
			}
		}
	}

	if r.Review != nil {
		return Review(w, best.Role, r.Review)
	}

	return nil
}

// Description writes a single role with its description.
func Description(w io.Writer, res matcher.Result) error {
	description := strings.TrimSpace(res.Description)
	if description == "" {
		description = "(no description)"
	}

	_, err := fmt.Fprintf(w, "%s (%s)\n  %s\n\n", res.Role, Percent(res.MatchPercent), description)
	return err
}

// Review writes an AI assessment of the named role.
func Review(w io.Writer, role string, a *ai.Assessment) error {
	if a == nil {
		return nil
	}

	verdict := "no"
	if a.Fit {
		verdict = "yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nAI review of %s: fit=%s score=%s\n", role, verdict, strconv.FormatFloat(a.Score, 'f', 2, 64))
	if a.Reason != "" {
		fmt.Fprintf(&b, "  Reason: %s\n", a.Reason)
	}
	if a.Advice != "" {
		fmt.Fprintf(&b, "  Advice: %s\n", a.Advice)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Percent formats a match percentage without trailing zeros.
func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}
