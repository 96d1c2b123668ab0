package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigEnvVar names the environment variable that may point at a JSON
// config file when -c/-config is not given.
const ConfigEnvVar = "CALCKEEPER_CLIENT_CONFIG"

// Config holds runtime settings for the calckeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - SessionFile: where tokens are kept between invocations.
//   - RequestTimeout: deadline for a single API call, refresh included.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	SessionFile    string        `env:"SESSION_FILE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults. The session lives under
// the user's home directory; when that cannot be resolved it falls back to
// the working directory.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.SessionFile = DefaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

// DefaultSessionFile returns $HOME/.calckeeper/session.json.
func DefaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".calckeeper", "session.json")
	}
	return filepath.Join(home, ".calckeeper", "session.json")
}

func (c *Config) Validate() error {
	switch {
	case c.ServerURL == "":
		return errors.New("server url is required")
	case c.SessionFile == "":
		return errors.New("session file is required")
	case c.RequestTimeout <= 0:
		return errors.New("request timeout must be positive")
	}
	return nil
}

// Load builds a Config from defaults, then overlays an optional JSON file
// and CALCKEEPER_* environment variables. Command-line flags are applied
// later by the command tree, which owns flag parsing.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
