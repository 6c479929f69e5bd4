package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the submitdiff configuration.
type Config struct {
	ContextLines    int           `yaml:"contextLines"`
	TimeoutSeconds  int           `yaml:"timeoutSeconds"`
	Retries         int           `yaml:"retries"`
	Remote          string        `yaml:"remote"`
	IncludeMetadata bool          `yaml:"includeMetadata"`
	Privacy         PrivacyConfig `yaml:"privacy"`
	Log             LogConfig     `yaml:"log"`
}

// PrivacyConfig controls redaction of the diff before submission.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const maxRetries = 10

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		ContextLines:   50,
		TimeoutSeconds: 30,
		Retries:        0,
		Remote:         "origin",
		Privacy: PrivacyConfig{
			RedactSecrets: false,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Timeout returns the per-attempt network timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ContextLines < 0 {
		return goerr.New("contextLines must not be negative", goerr.V("contextLines", c.ContextLines))
	}
	if c.TimeoutSeconds <= 0 {
		return goerr.New("timeoutSeconds must be positive", goerr.V("timeoutSeconds", c.TimeoutSeconds))
	}
	if c.Retries < 0 || c.Retries > maxRetries {
		return goerr.New(fmt.Sprintf("retries must be between 0 and %d", maxRetries), goerr.V("retries", c.Retries))
	}
	if strings.TrimSpace(c.Remote) == "" {
		return goerr.New("remote must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return goerr.New("log.level must be one of debug, info, warn, error", goerr.V("level", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return goerr.New("log.format must be console or json", goerr.V("format", c.Log.Format))
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for submitdiff.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "submitdiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "cannot determine home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "submitdiff"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "submitdiff"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "submitdiff"), nil
	default:
		return filepath.Join(home, ".config", "submitdiff"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return ConfigPath()
}

// LoadFile reads the config file at path (the default location when empty)
// over the defaults. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path (the default location when empty).
func Save(cfg Config, path string) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return goerr.Wrap(err, "creating config directory", goerr.V("path", path))
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return goerr.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "writing config file", goerr.V("path", path))
	}
	return nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags; only flags the user set appear in it.
func Load(path string, overrides map[string]string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	for key, value := range overrides {
		if err := SetField(&cfg, key, value); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	// #nosec G304 -- path is user-provided config path.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerr.Wrap(err, "reading config file", goerr.V("path", path))
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), dst); err != nil {
		return goerr.Wrap(err, "parsing config file", goerr.V("path", path))
	}
	return nil
}

var envKeys = []struct {
	env string
	key string
}{
	{"SUBMITDIFF_CONTEXT_LINES", "contextLines"},
	{"SUBMITDIFF_TIMEOUT", "timeoutSeconds"},
	{"SUBMITDIFF_RETRIES", "retries"},
	{"SUBMITDIFF_REMOTE", "remote"},
	{"SUBMITDIFF_INCLUDE_METADATA", "includeMetadata"},
	{"SUBMITDIFF_REDACT", "privacy.redactSecrets"},
	{"SUBMITDIFF_LOG_LEVEL", "log.level"},
	{"SUBMITDIFF_LOG_FORMAT", "log.format"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return goerr.Wrap(err, "invalid environment variable", goerr.V("name", e.env))
		}
	}
	return nil
}

// Keys lists the keys accepted by SetField.
func Keys() []string {
	keys := make([]string, len(envKeys))
	for i, e := range envKeys {
		keys[i] = e.key
	}
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "contextLines":
		n, err := strconv.Atoi(value)
		if err != nil {
			return goerr.Wrap(err, "contextLines must be an integer")
		}
		cfg.ContextLines = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return goerr.Wrap(err, "timeoutSeconds must be an integer")
		}
		cfg.TimeoutSeconds = n
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return goerr.Wrap(err, "retries must be an integer")
		}
		cfg.Retries = n
	case "remote":
		cfg.Remote = value
	case "includeMetadata":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return goerr.Wrap(err, "includeMetadata must be a boolean")
		}
		cfg.IncludeMetadata = b
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return goerr.Wrap(err, "privacy.redactSecrets must be a boolean")
		}
		cfg.Privacy.RedactSecrets = b
	case "log.level":
		cfg.Log.Level = strings.ToLower(value)
	case "log.format":
		cfg.Log.Format = strings.ToLower(value)
	default:
		return goerr.New("unknown config key", goerr.V("key", key))
	}
	return nil
}
