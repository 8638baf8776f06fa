package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-roles/internal/analyzer"
)

const (
	app       = "resume-roles"
	envPrefix = "RESUME_ROLES"
)

type Config struct {
	Catalog     *CatalogConfig  `mapstructure:"catalog" validate:"required"`
	Matching    *MatchingConfig `mapstructure:"matching" validate:"required"`
	Display     *DisplayConfig  `mapstructure:"display" validate:"required"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	AI          *AIConfig       `mapstructure:"ai" validate:"required"`
}

type CatalogConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	MatchField string `mapstructure:"match-field" validate:"oneof=description skills both"`
}

type MatchingConfig struct {
	Precision    int    `mapstructure:"precision" validate:"gte=0,lte=6"`
	FallbackText string `mapstructure:"fallback-text"`
}

type DisplayConfig struct {
	Top          int      `mapstructure:"top" validate:"gte=0"`
	MinPercent   float64  `mapstructure:"min-percent" validate:"gte=0,lte=100"`
	ExcludeRoles []string `mapstructure:"exclude-roles"`
	Format       string   `mapstructure:"format" validate:"oneof=table json"`
}

type AIConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Model        string `mapstructure:"model"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	APIKey       string `mapstructure:"api-key" json:"-"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	validate = validator.New(validator.WithRequiredStructEnabled())

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-roles is a simple cli for ranking job roles by how well they match a resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-roles.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("catalog", "c", "", "CSV file with job roles (default job_roles.csv)")
	rootCmd.PersistentFlags().String("match-field", "", "role text used for matching: description, skills or both")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("catalog.match-field", rootCmd.PersistentFlags().Lookup("match-field"))
}

func setDefaults() {
	viper.SetDefault("catalog.path", "job_roles.csv")
	viper.SetDefault("catalog.match-field", "description")
	viper.SetDefault("matching.precision", 1)
	viper.SetDefault("matching.fallback-text", analyzer.DefaultFallbackText)
	viper.SetDefault("display.top", 0)
	viper.SetDefault("display.min-percent", 0.0)
	viper.SetDefault("display.exclude-roles", []string{})
	viper.SetDefault("display.format", "table")
	viper.SetDefault("exclude-file", "")
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.api-key-file", "")
	viper.SetDefault("ai.api-key", "")
	viper.SetDefault("ai.max-retries", 2)
	viper.SetDefault("ai.max-log-length", 200)
}

// configure registers defaults and RESUME_ROLES_* environment overrides.
func configure() {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	configure()

	if err := readConfigFile(cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfigFile reads an explicit config file or, when none is given, an
// optional resume-roles.yaml from the working directory.
func readConfigFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		// We can't proceed if the config file parsed with error.
		return viper.ReadInConfig()
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return config, fmt.Errorf("invalid config: %s failed on %q (value %v)", verrs[0].Namespace(), verrs[0].Tag(), verrs[0].Value())
		}
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
