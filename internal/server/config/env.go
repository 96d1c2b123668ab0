package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CALCKEEPER_"

// parseEnv overlays variables such as CALCKEEPER_SECRET_KEY. Unset
// variables leave the current value alone; durations use Go syntax ("15m").
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
