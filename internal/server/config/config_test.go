package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8000", c.HTTPAddr)
	assert.Equal(t, ":50051", c.HealthAddr)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, bcrypt.DefaultCost, c.BcryptCost)
	assert.Equal(t, 5*time.Second, c.StatementTimeout)
	assert.Equal(t, "info", c.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) { c.SecretKey = "k" }},
		{name: "missing secret", mutate: func(c *Config) {}, wantErr: "secret key"},
		{name: "zero access ttl", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.AccessTokenValidityDuration = 0
		}, wantErr: "access token"},
		{name: "refresh not longer than access", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.RefreshTokenValidityDuration = c.AccessTokenValidityDuration
		}, wantErr: "refresh token"},
		{name: "bcrypt too low", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.BcryptCost = bcrypt.MinCost - 1
		}, wantErr: "bcrypt cost"},
		{name: "bcrypt too high", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.BcryptCost = bcrypt.MaxCost + 1
		}, wantErr: "bcrypt cost"},
		{name: "negative timeout", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.StatementTimeout = -time.Second
		}, wantErr: "statement timeout"},
		{name: "empty dsn", mutate: func(c *Config) {
			c.SecretKey = "k"
			c.DatabaseDSN = ""
		}, wantErr: "dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRefreshSecret(t *testing.T) {
	c := &Config{SecretKey: "access"}
	assert.Equal(t, "access", c.RefreshSecret())
	c.RefreshSecretKey = "refresh"
	assert.Equal(t, "refresh", c.RefreshSecret())
}

func TestLoad_Layering(t *testing.T) {
	path := writeConfig(t, `{
		"http_addr": ":9000",
		"secret_key": "from-json",
		"access_token_validity_duration": "90s",
		"bcrypt_cost": 6,
		"s3_bucket": "json-bucket"
	}`)

	t.Setenv("CALCKEEPER_SECRET_KEY", "from-env")
	t.Setenv("CALCKEEPER_S3_BUCKET", "env-bucket")
	t.Setenv("CALCKEEPER_STATEMENT_TIMEOUT", "2s")

	cfg, err := Load([]string{"-c", path, "-b", "flag-bucket", "-l", "debug"})
	require.NoError(t, err)

	want := defaults()
	want.HTTPAddr = ":9000"
	want.SecretKey = "from-env"
	want.AccessTokenValidityDuration = 90 * time.Second
	want.BcryptCost = 6
	want.S3Bucket = "flag-bucket"
	want.StatementTimeout = 2 * time.Second
	want.LogLevel = "debug"

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	path := writeConfig(t, `{"secret_key":"s","database_dsn":"memory://"}`)
	t.Setenv(ConfigEnvVar, path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.DatabaseDSN)
	assert.Equal(t, "s", cfg.SecretKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := Load([]string{"-c", writeConfig(t, `{"secret_key":`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("CALCKEEPER_BCRYPT_COST", "lots")
		_, err := Load([]string{"-s", "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env")
	})

	t.Run("bad flag value", func(t *testing.T) {
		_, err := Load([]string{"-s", "k", "-t", "soon"})
		require.Error(t, err)
	})

	t.Run("fails validation", func(t *testing.T) {
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}
