// Package config loads campusnav settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Store struct {
		Driver      string `yaml:"driver"` // postgres, sqlite, memory
		DatabaseURL string `yaml:"database_url"`
		SQLitePath  string `yaml:"sqlite_path"`
	} `yaml:"store"`

	// CampusFile is a YAML campus loaded at startup. Required for the memory
	// driver, optional otherwise.
	CampusFile string `yaml:"campus_file"`

	Routing struct {
		WalkingSpeed   float64       `yaml:"walking_speed"` // meters per second
		BuildMode      string        `yaml:"build_mode"`    // lenient, strict
		CacheGraph     bool          `yaml:"cache_graph"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"routing"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text, json
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var c Config
	c.ListenAddr = ":3000"
	c.Store.Driver = DriverPostgres
	c.Store.SQLitePath = "campusnav.db"
	c.Routing.WalkingSpeed = 1.4
	c.Routing.BuildMode = "lenient"
	c.Routing.RequestTimeout = 5 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load reads the configuration like Read and validates it.
func Load(path string) (Config, error) {
	c, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Read builds a Config from defaults, then the YAML file at path (when path
// is not empty), then environment overrides. Callers that layer more
// settings on top, like command-line flags, validate afterwards.
func Read(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.ListenAddr = envOrDefault("CAMPUSNAV_LISTEN_ADDR", c.ListenAddr)
	c.Store.Driver = envOrDefault("CAMPUSNAV_STORE", c.Store.Driver)
	c.Store.DatabaseURL = envOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.SQLitePath = envOrDefault("CAMPUSNAV_SQLITE_PATH", c.Store.SQLitePath)
	c.CampusFile = envOrDefault("CAMPUSNAV_CAMPUS_FILE", c.CampusFile)
	c.Routing.BuildMode = envOrDefault("CAMPUSNAV_BUILD_MODE", c.Routing.BuildMode)
	c.Log.Level = envOrDefault("CAMPUSNAV_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("CAMPUSNAV_LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("CAMPUSNAV_WALKING_SPEED"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: invalid CAMPUSNAV_WALKING_SPEED: %w", err)
		}
		c.Routing.WalkingSpeed = speed
	}
	if v := os.Getenv("CAMPUSNAV_CACHE_GRAPH"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid CAMPUSNAV_CACHE_GRAPH: %w", err)
		}
		c.Routing.CacheGraph = on
	}
	if v := os.Getenv("CAMPUSNAV_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid CAMPUSNAV_REQUEST_TIMEOUT: %w", err)
		}
		c.Routing.RequestTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config: postgres store requires DATABASE_URL")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: sqlite store requires sqlite_path")
		}
	case DriverMemory:
		if c.CampusFile == "" {
			return errors.New("config: memory store requires campus_file")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Routing.WalkingSpeed <= 0 {
		return fmt.Errorf("config: walking speed must be positive, got %v", c.Routing.WalkingSpeed)
	}
	if c.Routing.RequestTimeout < 0 {
		return errors.New("config: request timeout cannot be negative")
	}
	switch c.Routing.BuildMode {
	case "lenient", "strict":
	default:
		return fmt.Errorf("config: unknown build mode %q", c.Routing.BuildMode)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Logger returns a slog.Logger writing to w in the configured format and
// level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return l, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
