package app

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Files
	SourceFile    string
	TargetFile    string
	OutputFile    string
	UnmatchedFile string

	// Matching
	PrimaryThreshold  int
	FallbackThreshold int
	FoldDiacritics    bool
	AbbreviationsFile string
	TopK              int

	Arbiter ArbiterConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// logLevelFlag is the --log-level value, which outranks -v and -q
	logLevelFlag string
}

// ArbiterConfig configures the Gemini arbiter tier.
type ArbiterConfig struct {
	Enabled       bool
	Model         string
	APIKey        string
	BatchSize     int
	Concurrency   int
	RatePerSecond float64
	MinConfidence float64
	CacheFile     string
	Timeout       time.Duration
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (configFile, or .stationmatch.yaml in . or $HOME)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(constants.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read "+describe(configFile, v), err)
		}
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		SourceFile:    v.GetString("source_file"),
		TargetFile:    v.GetString("target_file"),
		OutputFile:    v.GetString("output_file"),
		UnmatchedFile: v.GetString("unmatched_file"),

		PrimaryThreshold:  v.GetInt("primary_threshold"),
		FallbackThreshold: v.GetInt("fallback_threshold"),
		FoldDiacritics:    v.GetBool("fold_diacritics"),
		AbbreviationsFile: v.GetString("abbreviations_file"),
		TopK:              v.GetInt("top_k"),

		Arbiter: ArbiterConfig{
			Enabled:       v.GetBool("arbiter.enabled"),
			Model:         v.GetString("arbiter.model"),
			APIKey:        v.GetString("arbiter.api_key"),
			BatchSize:     v.GetInt("arbiter.batch_size"),
			Concurrency:   v.GetInt("arbiter.concurrency"),
			RatePerSecond: v.GetFloat64("arbiter.rate_per_second"),
			MinConfidence: v.GetFloat64("arbiter.min_confidence"),
			CacheFile:     v.GetString("arbiter.cache_file"),
			Timeout:       v.GetDuration("arbiter.timeout"),
		},

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_file", constants.DefaultSourceFile)
	v.SetDefault("target_file", constants.DefaultTargetFile)
	v.SetDefault("output_file", constants.DefaultOutputFile)
	v.SetDefault("unmatched_file", constants.DefaultUnmatchedFile)

	v.SetDefault("primary_threshold", constants.DefaultPrimaryThreshold)
	v.SetDefault("fallback_threshold", constants.DefaultFallbackThreshold)
	v.SetDefault("fold_diacritics", false)
	v.SetDefault("top_k", constants.DefaultTopK)

	v.SetDefault("arbiter.enabled", true)
	v.SetDefault("arbiter.model", constants.DefaultArbiterModel)
	v.SetDefault("arbiter.batch_size", constants.DefaultBatchSize)
	v.SetDefault("arbiter.concurrency", constants.DefaultArbiterConcurrency)
	v.SetDefault("arbiter.rate_per_second", 0)
	v.SetDefault("arbiter.min_confidence", 0)
	v.SetDefault("arbiter.timeout", constants.DefaultArbiterTimeout)

	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// bindEnv binds keys that are also read from unprefixed variables.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"arbiter.api_key": {"STATIONMATCH_ARBITER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"log_level":       {"STATIONMATCH_LOG_LEVEL", "LOG_LEVEL"},
		"log_format":      {"STATIONMATCH_LOG_FORMAT", "LOG_FORMAT"},
		"log_output":      {"STATIONMATCH_LOG_OUTPUT", "LOG_OUTPUT"},
		"no_color":        {"STATIONMATCH_NO_COLOR", "NO_COLOR"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return errors.NewConfigError("env", "failed to bind "+key, err)
		}
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files. Variables already
// set win, and .env.local wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.PrimaryThreshold < 0 || c.PrimaryThreshold > constants.MaxScore {
		return errors.NewValidationError("primary_threshold", c.PrimaryThreshold, "must be between 0 and 100")
	}
	if c.FallbackThreshold < 0 || c.FallbackThreshold > constants.MaxScore {
		return errors.NewValidationError("fallback_threshold", c.FallbackThreshold, "must be between 0 and 100")
	}
	if c.FallbackThreshold > c.PrimaryThreshold {
		return errors.NewValidationError("fallback_threshold", c.FallbackThreshold,
			fmt.Sprintf("cannot exceed primary_threshold (%d)", c.PrimaryThreshold))
	}
	if c.TopK <= 0 {
		return errors.NewValidationError("top_k", c.TopK, "must be positive")
	}
	if c.Arbiter.BatchSize <= 0 {
		return errors.NewValidationError("arbiter.batch_size", c.Arbiter.BatchSize, "must be positive")
	}
	if c.Arbiter.Concurrency < 1 || c.Arbiter.Concurrency > constants.MaxArbiterConcurrency {
		return errors.NewValidationError("arbiter.concurrency", c.Arbiter.Concurrency,
			fmt.Sprintf("must be between 1 and %d", constants.MaxArbiterConcurrency))
	}
	if c.Arbiter.RatePerSecond < 0 {
		return errors.NewValidationError("arbiter.rate_per_second", c.Arbiter.RatePerSecond, "cannot be negative")
	}
	if c.Arbiter.MinConfidence < 0 || c.Arbiter.MinConfidence > 100 {
		return errors.NewValidationError("arbiter.min_confidence", c.Arbiter.MinConfidence, "must be between 0 and 100")
	}
	if c.Arbiter.Timeout < 0 {
		return errors.NewValidationError("arbiter.timeout", c.Arbiter.Timeout, "cannot be negative")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed global flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	c.logLevelFlag = logLevel
}

// Paths returns the configured files.
func (c *Config) Paths() application.Paths {
	return application.Paths{
		Source:    c.SourceFile,
		Target:    c.TargetFile,
		Output:    c.OutputFile,
		Unmatched: c.UnmatchedFile,
	}
}

// Matching returns the configured thresholds and candidate limit.
func (c *Config) Matching() application.Matching {
	return application.Matching{
		PrimaryThreshold:  c.PrimaryThreshold,
		FallbackThreshold: c.FallbackThreshold,
		TopK:              c.TopK,
	}
}

func describe(configFile string, v *viper.Viper) string {
	if configFile != "" {
		return configFile
	}
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return constants.DefaultConfigName + ".yaml"
}
