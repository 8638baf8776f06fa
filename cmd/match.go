package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/ai"
	"github.com/spigell/resume-roles/internal/ai/gemini"
	"github.com/spigell/resume-roles/internal/analyzer"
	"github.com/spigell/resume-roles/internal/catalog"
	"github.com/spigell/resume-roles/internal/extract"
	"github.com/spigell/resume-roles/internal/filtering"
	"github.com/spigell/resume-roles/internal/logger"
	"github.com/spigell/resume-roles/internal/matcher"
	"github.com/spigell/resume-roles/internal/nlp"
	"github.com/spigell/resume-roles/internal/report"
	"github.com/spigell/resume-roles/internal/secrets"
)

const (
	PromptDescription         = "View a role description"
	PromptAppendToExcludeFile = "Append shown roles to exclude file"
	PromptResultsToFile       = "Dump results to file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match [resume file]",
	Short: "Rank catalog roles against a resume (PDF, DOCX or plain text)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("text", "t", "", "resume text used when no file is given or nothing could be extracted")
	matchCmd.Flags().IntP("top", "n", 0, "show only the first N roles (0 shows all)")
	matchCmd.Flags().Float64("min-percent", 0, "hide roles below this match percent")
	matchCmd.Flags().StringP("format", "o", "", "output format: table or json")
	matchCmd.Flags().BoolP("yes", "y", false, "do not start the interactive shell after printing results")
	matchCmd.Flags().StringP("exclude-file", "e", "", "special file with roles to exclude. Default is unset.")
	matchCmd.Flags().Bool("descriptions", false, "print role descriptions under the table")
	matchCmd.Flags().Bool("ai", false, "ask Gemini for a second opinion on the best match")

	viper.BindPFlag("display.top", matchCmd.Flags().Lookup("top"))
	viper.BindPFlag("display.min-percent", matchCmd.Flags().Lookup("min-percent"))
	viper.BindPFlag("display.format", matchCmd.Flags().Lookup("format"))
	viper.BindPFlag("exclude-file", matchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("ai.enabled", matchCmd.Flags().Lookup("ai"))
}

// session holds the state of one interactive match run.
type session struct {
	ctx      context.Context
	out      io.Writer
	logger   *zap.Logger
	config   *Config
	analysis *analyzer.Analysis
	steps    []filtering.Filter
	shown    []matcher.Result
	review   *ai.Assessment
}

// match is the main command for the cli.
func match(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting the resume-roles", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	format, err := report.ParseFormat(config.Display.Format)
	if err != nil {
		zlog.Fatal("parsing output format", zap.Error(err))
	}

	c, err := loadCatalog(config)
	if err != nil {
		zlog.Fatal("loading the catalog",
			zap.Error(err),
			zap.String("hint", "pass --catalog or set catalog.path to a CSV file with Role and Description columns"),
		)
	}
	zlog.Info("catalog loaded", zap.Int("roles", c.Len()), zap.String("match_field", string(c.Field)))

	document, err := readDocument(args)
	if err != nil {
		zlog.Fatal("reading the resume", zap.Error(err))
	}

	fallback := config.Matching.FallbackText
	if text, _ := cmd.Flags().GetString("text"); strings.TrimSpace(text) != "" {
		fallback = text
	}

	a, err := newAnalyzer(config, c, fallback, zlog)
	if err != nil {
		zlog.Fatal("creating the analyzer", zap.Error(err))
	}

	analysis := a.Analyze(document)
	runLogger := logger.WithRun(zlog, analysis.RunID)

	s := &session{
		ctx:      ctx,
		out:      os.Stdout,
		logger:   runLogger,
		config:   config,
		analysis: analysis,
		steps:    prepareFilters(config),
	}

	if err := s.refresh(); err != nil {
		runLogger.Fatal("filtering failed", zap.Error(err))
	}

	if config.AI.Enabled {
		s.review = s.reviewBest()
	}

	if err := report.Render(s.out, format, s.report(), report.Options{Descriptions: flagBool(cmd, "descriptions")}); err != nil {
		runLogger.Fatal("rendering results", zap.Error(err))
	}

	if format == report.FormatJSON || flagBool(cmd, "yes") || len(s.shown) == 0 {
		return
	}

	for {
		items := []string{PromptDescription}
		if config.ExcludeFile != "" && len(s.shown) != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptResultsToFile, PromptExit)

		prompt := promptui.Select{
			Label: "What next?",
			Items: items,
		}

		_, action, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			runLogger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			runLogger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (s *session) handleAction(action string) error {
	switch action {
	case PromptDescription:
		return s.viewDescription()
	case PromptAppendToExcludeFile:
		return s.appendToExcludeFile()
	case PromptResultsToFile:
		filename, err := dumpToTmpFile(s.report())
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) viewDescription() error {
	items := make([]string, 0, len(s.shown)+1)
	for i, r := range s.shown {
		items = append(items, fmt.Sprintf("%d %s (%s)", i+1, r.Role, report.Percent(r.MatchPercent)))
	}

	rolePrompt := promptui.Select{
		Label: "Choose a role and press ENTER",
		Items: append(items, PromptBack),
		Size:  10,
	}

	idx, selected, err := rolePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack || idx >= len(s.shown) {
		return nil
	}

	return report.Description(s.out, s.shown[idx])
}

func (s *session) appendToExcludeFile() error {
	excludeFile := s.config.ExcludeFile

	excluded, err := filtering.GetExcludedRolesFromFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(filtering.ToExcluded(s.shown))

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file",
		zap.String("filename", excludeFile),
		zap.Int("roles", len(s.shown)),
	)

	if err := s.refresh(); err != nil {
		return err
	}

	return report.Render(s.out, report.FormatTable, s.report(), report.Options{})
}

// refresh reapplies the display filters to the full ranking.
func (s *session) refresh() error {
	cfg := &filtering.Config{
		ExcludeRoles: s.config.Display.ExcludeRoles,
		ExcludeFile:  s.config.ExcludeFile,
		MinPercent:   s.config.Display.MinPercent,
		Top:          s.config.Display.Top,
	}

	shown, err := filtering.Run(s.ctx, cfg, filtering.Deps{Logger: s.logger}, s.steps, s.analysis.Results)
	if err != nil {
		return err
	}

	s.logger.Info("current list of roles", zap.Int("count", len(shown)), zap.Int("ranked", len(s.analysis.Results)))
	s.shown = shown
	return nil
}

// reviewBest asks the AI reviewer about the first shown role. Failures are
// logged and the run continues without a review.
func (s *session) reviewBest() *ai.Assessment {
	if len(s.shown) == 0 {
		return nil
	}

	reviewer, err := newReviewer(s.ctx, s.config.AI, s.logger)
	if err != nil {
		s.logger.Warn("skipping AI review", zap.Error(err))
		return nil
	}

	assessment, err := reviewer.Review(s.ctx, s.analysis.Text, s.shown[0])
	if err != nil {
		s.logger.Warn("AI review failed", zap.String("role", s.shown[0].Role), zap.Error(err))
		return nil
	}

	s.logger.Info("AI review",
		zap.String("role", s.shown[0].Role),
		zap.Bool("fit", assessment.Fit),
		zap.Float64("score", assessment.Score),
	)
	return assessment
}

func (s *session) report() *report.Report {
	return &report.Report{
		RunID:   s.analysis.RunID,
		Source:  string(s.analysis.Source),
		Total:   len(s.analysis.Results),
		Results: s.shown,
		Review:  s.review,
	}
}

func loadCatalog(config *Config) (*catalog.Catalog, error) {
	field, err := catalog.ParseField(config.Catalog.MatchField)
	if err != nil {
		return nil, err
	}
	return catalog.Load(config.Catalog.Path, field)
}

func newAnalyzer(config *Config, c *catalog.Catalog, fallback string, logger *zap.Logger) (*analyzer.Analyzer, error) {
	normalizer := nlp.NewNormalizer(nlp.English())
	m := matcher.New(normalizer,
		matcher.WithPrecision(config.Matching.Precision),
		matcher.WithLogger(logger),
	)

	return analyzer.New(analyzer.Config{FallbackText: fallback}, analyzer.Deps{
		Extractor:  extract.New(logger),
		Normalizer: normalizer,
		Index:      m.Index(c),
		Logger:     logger,
	})
}

func newReviewer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Reviewer, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key-file, ai.api-key or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithAI(log, "gemini", cfg.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries,
		aiLogger.With(zap.Int("ai_retry_attempts", cfg.MaxRetries)),
	)
	if err != nil {
		return nil, err
	}

	return gemini.NewReviewer(generator, cfg.MaxLogLength, aiLogger), nil
}

func prepareFilters(config *Config) []filtering.Filter {
	steps := filtering.Default()

	if config.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "exclude-file is not set")
	}
	if len(config.Display.ExcludeRoles) == 0 {
		filtering.DisableByName(steps, "excluded_roles", "display.exclude-roles is empty")
	}

	return steps
}

// readDocument returns the content of the resume file, or nil when no file is given.
func readDocument(args []string) ([]byte, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading resume file: %w", err)
	}
	return data, nil
}

// dumpToTmpFile writes the report as JSON into a new temporary file and returns its name.
func dumpToTmpFile(r *report.Report) (string, error) {
	file, err := os.CreateTemp("", app+"-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := report.Render(file, report.FormatJSON, r, report.Options{}); err != nil {
		return "", err
	}

	return file.Name(), nil
}

func flagBool(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	value, err := cmd.Flags().GetBool(name)
	return err == nil && value
}
