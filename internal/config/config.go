// Package config provides configuration management for triage.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (TRIAGE_*), including those from a .env file
// 3. Project config (.triage/config.yaml in cwd, or $TRIAGE_CONFIG)
// 4. Home config (~/.triage/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/abatilo/triage/internal/calendar"
	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/strategy"
)

// Config holds all triage configuration.
type Config struct {
	// Strategy is the scoring strategy used when a request names none.
	Strategy string `yaml:"strategy" json:"strategy"`

	// FallbackStrategy scores unknown strategy names with the default
	// strategy instead of rejecting them. Nil means unset.
	FallbackStrategy *bool `yaml:"fallback_strategy" json:"fallback_strategy"`

	// SuggestLimit is how many tasks suggest returns.
	SuggestLimit int `yaml:"suggest_limit" json:"suggest_limit"`

	// BaseDir is where analysis snapshots are stored (default: ~/.triage).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Output controls the default output format (table, json).
	Output string `yaml:"output" json:"output"`

	// Verbose enables telemetry output on stderr. Nil means unset.
	Verbose *bool `yaml:"verbose" json:"verbose"`

	// Addr is the listen address for triage serve.
	Addr string `yaml:"addr" json:"addr"`

	Holidays HolidayConfig `yaml:"holidays" json:"holidays"`
}

// HolidayConfig lists the non-working days skipped by working-day counts.
type HolidayConfig struct {
	// Recurring dates as MM-DD, observed every year.
	Recurring []string `yaml:"recurring" json:"recurring"`
	// Dates are one-off YYYY-MM-DD holidays.
	Dates []string `yaml:"dates" json:"dates"`
	// Disabled treats every weekday as a working day. Nil means unset.
	Disabled *bool `yaml:"disabled" json:"disabled"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput  = "table"
	defaultBaseDir = "~/.triage"
	defaultAddr    = ":8080"
)

// DefaultRecurringHolidays are the fixed-date national holidays observed
// unless configured otherwise.
var DefaultRecurringHolidays = []string{"01-01", "01-26", "05-01", "08-15", "10-02", "12-25"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Strategy:         string(strategy.Default),
		FallbackStrategy: Bool(false),
		SuggestLimit:     rank.DefaultSuggestLimit,
		BaseDir:          defaultBaseDir,
		Output:           defaultOutput,
		Verbose:          Bool(false),
		Addr:             defaultAddr,
		Holidays: HolidayConfig{
			Recurring: append([]string(nil), DefaultRecurringHolidays...),
			Disabled:  Bool(false),
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
//
// A missing config file is skipped; a malformed one is an error.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	for _, path := range []string{homeConfigPath(), projectConfigPath()} {
		fileConfig, err := loadFromPath(path)
		if err != nil {
			return nil, err
		}
		if fileConfig != nil {
			if err := merge(cfg, fileConfig); err != nil {
				return nil, err
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if flagOverrides != nil {
		if err := merge(cfg, flagOverrides); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Bool returns a pointer to b, for setting the optional switches of a Config.
func Bool(b bool) *bool {
	return &b
}

// FallbackEnabled reports whether unknown strategies fall back to the default.
func (c *Config) FallbackEnabled() bool {
	return c.FallbackStrategy != nil && *c.FallbackStrategy
}

// VerboseEnabled reports whether telemetry is written to stderr.
func (c *Config) VerboseEnabled() bool {
	return c.Verbose != nil && *c.Verbose
}

// HolidaysDisabled reports whether holidays are ignored.
func (c *Config) HolidaysDisabled() bool {
	return c.Holidays.Disabled != nil && *c.Holidays.Disabled
}

// merge overlays the set fields of src onto dst. A set switch overrides even
// when it is false.
func merge(dst, src *Config) error {
	if err := mergo.Merge(dst, src, mergo.WithOverride, mergo.WithTransformers(switchTransformer{})); err != nil {
		return errors.Wrap(err, "merge config")
	}
	return nil
}

// switchTransformer copies a non-nil *bool even when it points at false,
// which mergo would otherwise skip as an empty value.
type switchTransformer struct{}

func (switchTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf((*bool)(nil)) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".triage", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("TRIAGE_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".triage", "config.yaml")
}

// loadFromPath loads config from a YAML file. It returns nil, nil when the
// file does not exist.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of a .env file without overriding ones
// already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("TRIAGE_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("TRIAGE_FALLBACK_STRATEGY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "TRIAGE_FALLBACK_STRATEGY")
		}
		cfg.FallbackStrategy = &b
	}
	if v := os.Getenv("TRIAGE_SUGGEST_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "TRIAGE_SUGGEST_LIMIT")
		}
		cfg.SuggestLimit = n
	}
	if v := os.Getenv("TRIAGE_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("TRIAGE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("TRIAGE_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "TRIAGE_VERBOSE")
		}
		cfg.Verbose = &b
	}
	if v := os.Getenv("TRIAGE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TRIAGE_HOLIDAYS"); v != "" {
		cfg.Holidays.Recurring = splitList(v)
	}
	if v := os.Getenv("TRIAGE_HOLIDAY_DATES"); v != "" {
		cfg.Holidays.Dates = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if !strategy.IsValid(c.Strategy) {
		return errors.Errorf("invalid strategy %q (valid: %s)", c.Strategy, strings.Join(strategy.Names(), ", "))
	}
	if c.SuggestLimit < 1 || c.SuggestLimit > rank.MaxSuggestLimit {
		return errors.Errorf("invalid suggest_limit %d (valid: 1-%d)", c.SuggestLimit, rank.MaxSuggestLimit)
	}
	switch c.Output {
	case "table", "json":
	default:
		return errors.Errorf("invalid output %q (valid: table, json)", c.Output)
	}
	_, err := c.Calendar()
	return err
}

// Calendar returns the configured holiday set.
func (c *Config) Calendar() (calendar.Holidays, error) {
	if c.HolidaysDisabled() {
		return calendar.Holidays{}, nil
	}
	h, err := calendar.ParseHolidays(c.Holidays.Dates, c.Holidays.Recurring)
	if err != nil {
		return calendar.Holidays{}, errors.Wrap(err, "holidays")
	}
	return h, nil
}
