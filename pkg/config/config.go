// Package config loads goeli5 settings from a YAML file, a .env file and
// GOELI5_* environment variables, in increasing order of precedence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOELI5_"

// Config is the complete configuration of the CLI and the HTTP service.
type Config struct {
	Explain Explain `yaml:"explain"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

// Explain holds the defaults of explanation requests.
type Explain struct {
	Top            int    `yaml:"top"`
	ImportanceType string `yaml:"importance_type"`
	Format         string `yaml:"format"`
}

// Server configures the serve command.
type Server struct {
	Addr            string        `yaml:"addr"`
	ModelDir        string        `yaml:"model_dir"`
	CacheSize       int           `yaml:"cache_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log configures the process-wide logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Explain: Explain{
			Top:            20,
			ImportanceType: "gain",
			Format:         "text",
		},
		Server: Server{
			Addr:            "127.0.0.1:8080",
			ModelDir:        ".",
			CacheSize:       64,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load builds the configuration. An empty path falls back to
// GOELI5_CONFIG; with neither set only defaults and the environment apply.
// A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("TOP"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"TOP", "must be an integer", v)
		}
		c.Explain.Top = n
	}
	if v, ok := lookup("IMPORTANCE_TYPE"); ok {
		c.Explain.ImportanceType = v
	}
	if v, ok := lookup("FORMAT"); ok {
		c.Explain.Format = strings.ToLower(v)
	}
	if v, ok := lookup("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup("MODEL_DIR"); ok {
		c.Server.ModelDir = v
	}
	if v, ok := lookup("CACHE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"CACHE_SIZE", "must be an integer", v)
		}
		c.Server.CacheSize = n
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"SHUTDOWN_TIMEOUT", "must be a duration", v)
		}
		c.Server.ShutdownTimeout = d
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.CacheSize <= 0 {
		return errors.NewValidationError("server.cache_size", "must be positive", c.Server.CacheSize)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.NewValidationError("server.shutdown_timeout", "must be positive", c.Server.ShutdownTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	return nil
}
