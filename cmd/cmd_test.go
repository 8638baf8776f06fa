package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/analyzer"
	"github.com/spigell/resume-roles/internal/catalog"
	"github.com/spigell/resume-roles/internal/filtering"
)

const testCatalog = `Role,Description,Skills
Data Scientist,"python, machine learning, statistics, data analysis",python pandas
Web Developer,"html, css, javascript, frontend development",javascript react
Accountant,"bookkeeping, taxes, financial statements",excel
`

func resetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	configure()
	t.Cleanup(viper.Reset)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	resetViper(t)

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Catalog.Path != "job_roles.csv" || config.Catalog.MatchField != "description" {
		t.Fatalf("unexpected catalog config: %+v", config.Catalog)
	}
	if config.Matching.Precision != 1 || config.Matching.FallbackText != analyzer.DefaultFallbackText {
		t.Fatalf("unexpected matching config: %+v", config.Matching)
	}
	if config.Display.Format != "table" || config.Display.Top != 0 {
		t.Fatalf("unexpected display config: %+v", config.Display)
	}
	if config.AI.Enabled || config.AI.Model != "gemini-2.5-flash" || config.AI.MaxRetries != 2 {
		t.Fatalf("unexpected ai config: %+v", config.AI)
	}
}

func TestGetConfigEnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("RESUME_ROLES_DISPLAY_TOP", "5")
	t.Setenv("RESUME_ROLES_CATALOG_MATCH_FIELD", "both")
	t.Setenv("RESUME_ROLES_EXCLUDE_FILE", "excluded.json")

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Display.Top != 5 || config.Catalog.MatchField != "both" || config.ExcludeFile != "excluded.json" {
		t.Fatalf("env overrides not applied: %+v %+v %q", config.Display, config.Catalog, config.ExcludeFile)
	}
}

func TestGetConfigValidation(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{key: "catalog.match-field", value: "title"},
		{key: "matching.precision", value: -1},
		{key: "display.format", value: "xml"},
		{key: "display.min-percent", value: 150.0},
		{key: "display.top", value: -3},
		{key: "catalog.path", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.value)

			if _, err := getConfig(); err == nil {
				t.Fatalf("expected validation error for %s=%v", tt.key, tt.value)
			}
		})
	}
}

func TestReadConfigFile(t *testing.T) {
	resetViper(t)

	path := writeFile(t, "config.yaml", "display:\n  top: 2\n  exclude-roles:\n    - Accountant\nai:\n  enabled: true\n")
	if err := readConfigFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Display.Top != 2 || !config.AI.Enabled || len(config.Display.ExcludeRoles) != 1 {
		t.Fatalf("config file not applied: %+v %+v", config.Display, config.AI)
	}
	if config.Catalog.Path != "job_roles.csv" {
		t.Fatalf("defaults must survive a partial config file, got %q", config.Catalog.Path)
	}
}

func TestReadConfigFileErrors(t *testing.T) {
	resetViper(t)

	if err := readConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit config file")
	}

	broken := writeFile(t, "broken.yaml", "display: [unclosed\n")
	if err := readConfigFile(broken); err == nil {
		t.Fatalf("expected error for an unparsable config file")
	}
}

func TestPrepareFilters(t *testing.T) {
	t.Parallel()

	config := &Config{Display: &DisplayConfig{}}
	statuses := filtering.Describe(prepareFilters(config))

	enabled := map[string]bool{}
	for _, status := range statuses {
		enabled[status.Name] = status.Enabled
	}

	if enabled["exclude_file"] || enabled["excluded_roles"] {
		t.Fatalf("expected exclude steps to be disabled without configuration: %+v", statuses)
	}
	if !enabled["min_percent"] || !enabled["top"] {
		t.Fatalf("expected min_percent and top to stay enabled: %+v", statuses)
	}
}

func newTestSession(t *testing.T, config *Config) (*session, *bytes.Buffer) {
	t.Helper()

	c, err := catalog.Parse(strings.NewReader(testCatalog), catalog.FieldDescription)
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	a, err := newAnalyzer(config, c, config.Matching.FallbackText, zap.NewNop())
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}

	out := &bytes.Buffer{}
	s := &session{
		ctx:      t.Context(),
		out:      out,
		logger:   zap.NewNop(),
		config:   config,
		analysis: a.Analyze(nil),
		steps:    prepareFilters(config),
	}
	if err := s.refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return s, out
}

func testConfig() *Config {
	return &Config{
		Catalog:  &CatalogConfig{Path: "unused.csv", MatchField: "description"},
		Matching: &MatchingConfig{Precision: 1, FallbackText: "python machine learning statistics"},
		Display:  &DisplayConfig{Format: "table"},
		AI:       &AIConfig{},
	}
}

func TestSessionRanksFallbackText(t *testing.T) {
	s, _ := newTestSession(t, testConfig())

	if s.analysis.Source != analyzer.SourceFallback {
		t.Fatalf("expected fallback source, got %q", s.analysis.Source)
	}
	if len(s.shown) != 3 || s.shown[0].Role != "Data Scientist" {
		t.Fatalf("unexpected ranking: %+v", s.shown)
	}

	r := s.report()
	if r.Total != 3 || r.RunID == "" || r.Source != "fallback" {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestSessionAppendToExcludeFile(t *testing.T) {
	config := testConfig()
	config.ExcludeFile = filepath.Join(t.TempDir(), "excluded.json")
	config.Display.Top = 1

	s, out := newTestSession(t, config)
	if len(s.shown) != 1 || s.shown[0].Role != "Data Scientist" {
		t.Fatalf("unexpected shown roles: %+v", s.shown)
	}

	if err := s.handleAction(PromptAppendToExcludeFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	excluded, err := filtering.GetExcludedRolesFromFile(config.ExcludeFile)
	if err != nil {
		t.Fatalf("read exclude file: %v", err)
	}
	if roles := excluded.Roles(); len(roles) != 1 || roles[0] != "Data Scientist" {
		t.Fatalf("unexpected excluded roles: %v", roles)
	}

	if len(s.shown) != 1 || s.shown[0].Role == "Data Scientist" {
		t.Fatalf("expected the next role to be shown, got %+v", s.shown)
	}
	if len(s.analysis.Results) != 3 {
		t.Fatalf("full ranking must be untouched, got %d results", len(s.analysis.Results))
	}
	if !strings.Contains(out.String(), "Best match:") {
		t.Fatalf("expected refreshed table, got:\n%s", out.String())
	}
}

func TestSessionHandleAction(t *testing.T) {
	s, _ := newTestSession(t, testConfig())

	if err := s.handleAction(PromptExit); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
	if err := s.handleAction("unknown"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestDumpToTmpFile(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	s, _ := newTestSession(t, testConfig())
	filename, err := dumpToTmpFile(s.report())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !strings.Contains(string(data), `"role": "Data Scientist"`) {
		t.Fatalf("unexpected dump content: %s", data)
	}
}

func TestReadDocument(t *testing.T) {
	t.Parallel()

	if data, err := readDocument(nil); err != nil || data != nil {
		t.Fatalf("expected nil document without args, got %v, %v", data, err)
	}

	path := writeFile(t, "resume.txt", "python developer")
	data, err := readDocument([]string{path})
	if err != nil || string(data) != "python developer" {
		t.Fatalf("unexpected document: %q, %v", data, err)
	}

	if _, err := readDocument([]string{filepath.Join(t.TempDir(), "missing.pdf")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNormalizeCommand(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := normalize(&buf, nil, "The children were running!", zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "child run" {
		t.Fatalf("unexpected tokens: %q", got)
	}

	path := writeFile(t, "resume.txt", "Python developers")
	buf.Reset()
	if err := normalize(&buf, []string{path}, "ignored", zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "python developer" {
		t.Fatalf("unexpected tokens: %q", got)
	}

	if err := normalize(&buf, nil, "  ", zap.NewNop()); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestListRoles(t *testing.T) {
	t.Parallel()

	c, err := catalog.Parse(strings.NewReader(testCatalog), catalog.FieldSkills)
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	var buf bytes.Buffer
	if err := listRoles(&buf, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"skills", "Data Scientist", "python pandas", "3 roles"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestVersionString(t *testing.T) {
	if got := versionString(); !strings.HasPrefix(got, app+" version: ") {
		t.Fatalf("unexpected version string: %q", got)
	}
}
