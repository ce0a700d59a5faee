package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Auth      AuthConfig      `toml:"auth"`
	Retry     RetryConfig     `toml:"retry"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

type AuthConfig struct {
	Token               string `toml:"token"`
	EnterpriseBaseURL   string `toml:"enterprise_base_url"`
	EnterpriseUploadURL string `toml:"enterprise_upload_url"`
}

type RetryConfig struct {
	MaxAttempts         int `toml:"max_attempts"`
	InitialDelaySeconds int `toml:"initial_delay_seconds"`
}

func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelaySeconds) * time.Second
}

type RateLimitConfig struct {
	// SafetyThreshold is the remaining-quota floor below which new
	// mutations are rejected.
	SafetyThreshold int `toml:"safety_threshold"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Retry: RetryConfig{
			MaxAttempts:         5,
			InitialDelaySeconds: 1,
		},
		RateLimit: RateLimitConfig{
			SafetyThreshold: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine config directory")
	}
	return filepath.Join(configDir, "mergecoord", "config.toml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults. MERGECOORD_TOKEN and
// GITHUB_TOKEN override the configured token, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "could not read config file")
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "could not parse config file")
		}
	}

	if token := os.Getenv("MERGECOORD_TOKEN"); token != "" {
		cfg.Auth.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}

	return cfg, nil
}

// Save writes the config to the default location, creating the directory if
// needed.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "could not encode config")
	}
	return os.WriteFile(path, data, 0o600)
}
