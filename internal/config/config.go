// Package config resolves runtime settings from, in increasing priority:
// built-in defaults, an optional YAML file, a .env file plus OTTOPOS_*
// environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottopos/internal/kitchen"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "OTTOPOS_"

// Config is the full application configuration.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Log         LogConfig     `yaml:"log"`
	Kitchen     KitchenConfig `yaml:"kitchen"`
	Session     SessionConfig `yaml:"session"`
	Menu        MenuConfig    `yaml:"menu"`
	Stub        StubConfig    `yaml:"stub"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // "stderr" logs to the console
}

// KitchenConfig controls the kitchen board.
type KitchenConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	SortOrder     string        `yaml:"sort_order"`
	AlertDuration time.Duration `yaml:"alert_duration"`
	SeenRetention uint64        `yaml:"seen_retention"`
	Chime         bool          `yaml:"chime"`
	ChimeVolume   float64       `yaml:"chime_volume"`
}

// SessionConfig controls order submission.
type SessionConfig struct {
	CreatedBy     string `yaml:"created_by"`
	PaymentMethod string `yaml:"payment_method"`
}

// MenuConfig points at an optional dish catalog file.
type MenuConfig struct {
	File string `yaml:"file"`
}

// StubConfig controls the development backend.
type StubConfig struct {
	Addr string `yaml:"addr"`
	Seed bool   `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:     "http://localhost:8080/api",
		HTTPTimeout: 10 * time.Second,
		Log: LogConfig{
			Level: "normal",
			File:  ".ottopos-logs/ottopos.log",
		},
		Kitchen: KitchenConfig{
			PollInterval:  5 * time.Second,
			TickInterval:  time.Second,
			SortOrder:     "oldest",
			AlertDuration: 3 * time.Second,
			SeenRetention: 120,
			Chime:         true,
			ChimeVolume:   0.6,
		},
		Session: SessionConfig{
			CreatedBy:     "pos",
			PaymentMethod: "cash",
		},
		Stub: StubConfig{
			Addr: ":8080",
			Seed: true,
		},
	}
}

// LoadFile merges a YAML file over cfg. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from OTTOPOS_* variables found via lookup
// (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &c.BaseURL)
	dur("HTTP_TIMEOUT", &c.HTTPTimeout)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)
	dur("POLL_INTERVAL", &c.Kitchen.PollInterval)
	dur("TICK_INTERVAL", &c.Kitchen.TickInterval)
	str("SORT_ORDER", &c.Kitchen.SortOrder)
	dur("ALERT_DURATION", &c.Kitchen.AlertDuration)
	if v, ok := lookup(EnvPrefix + "SEEN_RETENTION"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEEN_RETENTION: %w", EnvPrefix, err))
		} else {
			c.Kitchen.SeenRetention = n
		}
	}
	boolean("CHIME", &c.Kitchen.Chime)
	str("CREATED_BY", &c.Session.CreatedBy)
	str("PAYMENT_METHOD", &c.Session.PaymentMethod)
	str("MENU_FILE", &c.Menu.File)
	str("STUB_ADDR", &c.Stub.Addr)

	return errors.Join(errs...)
}

// Flags holds the command-line values. Register adds them to a flag set;
// Apply copies the ones the user actually set onto a Config.
type Flags struct {
	ConfigFile string
	EnvFile    string
	Verbose    bool
	Quiet      bool

	cfg Config
	fs  *pflag.FlagSet
}

// Register adds the shared flags to fs. Defaults shown in help text come
// from Default().
func (f *Flags) Register(fs *pflag.FlagSet) {
	d := Default()
	f.fs = fs
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "dotenv file to load before reading "+EnvPrefix+"* variables")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "enable verbose/debug logging")
	fs.BoolVarP(&f.Quiet, "quiet", "q", false, "disable all logging")
	fs.StringVar(&f.cfg.BaseURL, "base-url", d.BaseURL, "backend base URL")
	fs.DurationVar(&f.cfg.HTTPTimeout, "http-timeout", d.HTTPTimeout, "HTTP request timeout")
	fs.StringVar(&f.cfg.Log.Level, "log-level", d.Log.Level, "log level: off, normal, verbose")
	fs.StringVar(&f.cfg.Log.File, "log-file", d.Log.File, "file to write logs to (use \"stderr\" to log to console)")
	fs.DurationVar(&f.cfg.Kitchen.PollInterval, "poll-interval", d.Kitchen.PollInterval, "kitchen poll period")
	fs.StringVar(&f.cfg.Kitchen.SortOrder, "sort", d.Kitchen.SortOrder, "kitchen board order: oldest or newest")
	fs.DurationVar(&f.cfg.Kitchen.AlertDuration, "alert-duration", d.Kitchen.AlertDuration, "how long the new-order alert stays up")
	fs.BoolVar(&f.cfg.Kitchen.Chime, "chime", d.Kitchen.Chime, "play a sound when new orders arrive")
	fs.StringVar(&f.cfg.Session.CreatedBy, "created-by", d.Session.CreatedBy, "createdBy value for submitted orders")
	fs.StringVar(&f.cfg.Menu.File, "menu", d.Menu.File, "YAML dish catalog (built-in menu when empty)")
	fs.StringVar(&f.cfg.Stub.Addr, "addr", d.Stub.Addr, "listen address for the development backend")
}

// Apply copies explicitly set flags onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs == nil {
		return
	}
	set := func(name string, apply func()) {
		if f.fs.Changed(name) {
			apply()
		}
	}
	set("base-url", func() { cfg.BaseURL = f.cfg.BaseURL })
	set("http-timeout", func() { cfg.HTTPTimeout = f.cfg.HTTPTimeout })
	set("log-level", func() { cfg.Log.Level = f.cfg.Log.Level })
	set("log-file", func() { cfg.Log.File = f.cfg.Log.File })
	set("poll-interval", func() { cfg.Kitchen.PollInterval = f.cfg.Kitchen.PollInterval })
	set("sort", func() { cfg.Kitchen.SortOrder = f.cfg.Kitchen.SortOrder })
	set("alert-duration", func() { cfg.Kitchen.AlertDuration = f.cfg.Kitchen.AlertDuration })
	set("chime", func() { cfg.Kitchen.Chime = f.cfg.Kitchen.Chime })
	set("created-by", func() { cfg.Session.CreatedBy = f.cfg.Session.CreatedBy })
	set("menu", func() { cfg.Menu.File = f.cfg.Menu.File })
	set("addr", func() { cfg.Stub.Addr = f.cfg.Stub.Addr })

	if f.Verbose {
		cfg.Log.Level = logger.LevelVerbose.String()
	}
	if f.Quiet {
		cfg.Log.Level = logger.LevelOff.String()
	}
}

// Load resolves the configuration for already-parsed flags.
func Load(f *Flags) (Config, error) {
	cfg := Default()

	if f.EnvFile != "" {
		if err := godotenv.Load(f.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", f.EnvFile, err)
		}
	}

	path := f.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	f.Apply(&cfg)

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Kitchen.PollInterval <= 0 {
		errs = append(errs, errors.New("kitchen.poll_interval must be positive"))
	}
	if c.Kitchen.TickInterval <= 0 {
		errs = append(errs, errors.New("kitchen.tick_interval must be positive"))
	}
	if c.Kitchen.AlertDuration <= 0 {
		errs = append(errs, errors.New("kitchen.alert_duration must be positive"))
	}
	if _, err := kitchen.ParseSortOrder(c.Kitchen.SortOrder); err != nil {
		errs = append(errs, err)
	}
	if c.Kitchen.ChimeVolume < 0 || c.Kitchen.ChimeVolume > 1 {
		errs = append(errs, errors.New("kitchen.chime_volume must be between 0 and 1"))
	}
	if strings.TrimSpace(c.Session.CreatedBy) == "" {
		errs = append(errs, errors.New("session.created_by must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c Config) LogLevel() logger.Level {
	l, _ := logger.ParseLevel(c.Log.Level)
	return l
}

// SortOrder returns the parsed kitchen sort order. Call after Validate.
func (c Config) SortOrder() kitchen.SortOrder {
	s, _ := kitchen.ParseSortOrder(c.Kitchen.SortOrder)
	return s
}
