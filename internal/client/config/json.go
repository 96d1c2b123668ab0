package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/calckeeper/internal/flagx"
	"github.com/dmitrijs2005/calckeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. RequestTimeout accepts
// either a string like "10s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	SessionFile    string         `json:"session_file"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays config with the file named by -c/-config or
// CALCKEEPER_CLIENT_CONFIG. Empty fields keep the current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args, ConfigEnvVar)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		config.ServerURL = jc.ServerURL
	}
	if jc.SessionFile != "" {
		config.SessionFile = jc.SessionFile
	}
	if jc.RequestTimeout.Duration != 0 {
		config.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
