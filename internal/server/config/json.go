package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/calckeeper/internal/flagx"
	"github.com/dmitrijs2005/calckeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either strings such as "15m" or integer nanoseconds. Missing or zero
// fields keep the value already in Config.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	HealthAddr                   string         `json:"health_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	RefreshSecretKey             string         `json:"refresh_secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	StatementTimeout             timex.Duration `json:"statement_timeout"`
	RevocationSweepInterval      timex.Duration `json:"revocation_sweep_interval"`
	LogLevel                     string         `json:"log_level"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config (or CALCKEEPER_CONFIG) into
// config. No path means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args, ConfigEnvVar)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.HealthAddr, c.HealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.StatementTimeout.Duration != 0 {
		config.StatementTimeout = c.StatementTimeout.Duration
	}
	if c.RevocationSweepInterval.Duration != 0 {
		config.RevocationSweepInterval = c.RevocationSweepInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
