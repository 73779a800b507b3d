// Package config resolves the run configuration from flags, environment
// variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"omnichunk/pkg/manifest"
	"omnichunk/pkg/render"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. OMNICHUNK_MAX_TOKENS.
	EnvPrefix = "OMNICHUNK"
	// FileName is the config file looked up in the root, without extension.
	FileName = ".omnichunk"
	// FileType is the config file format.
	FileType = "yaml"

	DefaultOutputDir = "chunks"
	DefaultMaxTokens = 100000
	DefaultMode      = string(manifest.ModeDirectory)
)

// Keys shared by flags, environment and config file.
const (
	KeyRoot          = "root"
	KeyOutput        = "output"
	KeyMaxTokens     = "max-tokens"
	KeyMode          = "mode"
	KeyInclude       = "include"
	KeyExclude       = "exclude"
	KeySeparator     = "separator"
	KeyProject       = "project"
	KeyTimestamp     = "timestamp"
	KeyMaxFileSizeKB = "max-file-size-kb"
	KeyWorkers       = "workers"
	KeyDryRun        = "dry-run"
	KeyIndex         = "index"
	KeyVerbose       = "verbose"
	KeyConfig        = "config"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved run configuration.
type Config struct {
	Root          string   `mapstructure:"root" yaml:"root" validate:"required"`
	OutputDir     string   `mapstructure:"output" yaml:"output" validate:"required"`
	MaxTokens     int      `mapstructure:"max-tokens" yaml:"max-tokens" validate:"gt=0"`
	Mode          string   `mapstructure:"mode" yaml:"mode" validate:"required"`
	Include       []string `mapstructure:"include" yaml:"include" validate:"dive,required"`
	Exclude       []string `mapstructure:"exclude" yaml:"exclude" validate:"dive,required"`
	Separator     string   `mapstructure:"separator" yaml:"separator" validate:"required"`
	Project       string   `mapstructure:"project" yaml:"project"`
	Timestamp     string   `mapstructure:"timestamp" yaml:"timestamp"`
	MaxFileSizeKB int      `mapstructure:"max-file-size-kb" yaml:"max-file-size-kb" validate:"gte=0"`
	Workers       int      `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
	DryRun        bool     `mapstructure:"dry-run" yaml:"dry-run"`
	Index         bool     `mapstructure:"index" yaml:"index"`
	Verbose       bool     `mapstructure:"verbose" yaml:"verbose"`
}

// FieldError describes one invalid setting.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyOutput, DefaultOutputDir)
	v.SetDefault(KeyMaxTokens, DefaultMaxTokens)
	v.SetDefault(KeyMode, DefaultMode)
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeySeparator, render.DefaultSeparator)
	v.SetDefault(KeyProject, "")
	v.SetDefault(KeyTimestamp, "")
	v.SetDefault(KeyMaxFileSizeKB, 0)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyIndex, true)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the optional config file, unmarshals v and validates the result.
// An explicit --config file must exist; the implicit .omnichunk.yaml in the
// root is optional.
func Load(v *viper.Viper) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Project == "" {
		cfg.Project = defaultProject(cfg.Root)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if explicit := v.GetString(KeyConfig); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName(FileName)
	v.SetConfigType(FileType)
	v.AddConfigPath(v.GetString(KeyRoot))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once, joined with multierr and
// wrapped in ErrInvalidConfig.
func Validate(cfg *Config) error {
	var errs error

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range fieldErrs {
			errs = multierr.Append(errs, FieldError{Field: fe.Namespace(), Message: describe(fe)})
		}
	}

	if _, err := manifest.ParseMode(cfg.Mode); err != nil && cfg.Mode != "" {
		errs = multierr.Append(errs, err)
	}
	if strings.ContainsAny(cfg.Separator, "\r\n") {
		errs = multierr.Append(errs, FieldError{Field: "Config.Separator", Message: "must be a single line"})
	}
	if _, err := cfg.RunTimestamp(time.Time{}); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// GroupingMode returns the parsed grouping mode.
func (c *Config) GroupingMode() (manifest.Mode, error) {
	return manifest.ParseMode(c.Mode)
}

// timestampLayouts are accepted for --timestamp.
var timestampLayouts = []string{render.TimestampLayout, time.RFC3339}

// RunTimestamp returns the configured timestamp, or now when none is set.
func (c *Config) RunTimestamp(now time.Time) (time.Time, error) {
	if c.Timestamp == "" {
		return now, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, c.Timestamp); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, FieldError{
		Field:   "Config.Timestamp",
		Message: fmt.Sprintf("%q matches neither %s nor RFC3339", c.Timestamp, render.TimestampLayout),
	}
}

func defaultProject(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}
