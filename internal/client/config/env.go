package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CALCKEEPER_"

// parseEnv overlays CALCKEEPER_SERVER_URL, CALCKEEPER_SESSION_FILE and
// CALCKEEPER_REQUEST_TIMEOUT when they are set.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
