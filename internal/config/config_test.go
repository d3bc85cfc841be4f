package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keccak256("test")
const testSecretHash = "9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("SECRET_HASH", testSecretHash)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1337, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8545", cfg.Ledger.RPCURL)
	assert.Equal(t, "0x4F9ACA000", cfg.Ledger.GasPrice)
	assert.Equal(t, SourceManifest, cfg.Release.MetadataSource)
	assert.Equal(t, []string{"stable", "beta"}, cfg.Release.EnabledTracks)
	assert.Len(t, cfg.Release.SupportedPlatforms, 3)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("SECRET_HASH", testSecretHash)
	t.Setenv("PORT", "9000")
	t.Setenv("ENABLED_TRACKS", "stable, nightly ,")
	t.Setenv("ACCOUNT_PASSWORD", "hunter2")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"stable", "nightly"}, cfg.Release.EnabledTracks)
	assert.Equal(t, "hunter2", cfg.Ledger.Password)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_GasPrice(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("SECRET_HASH", testSecretHash)

	t.Run("override", func(t *testing.T) {
		t.Setenv("GAS_PRICE", "0x3b9aca00")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "0x3b9aca00", cfg.Ledger.GasPrice)
	})

	t.Run("empty omits", func(t *testing.T) {
		t.Setenv("GAS_PRICE", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Ledger.GasPrice)
	})
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "push-release.yaml")
	content := `
server:
  port: 8081
release:
  secretHash: ` + testSecretHash + `
  repository: example/client
  enabledTracks: [stable]
  supportedPlatforms: [aarch64-unknown-linux-gnu]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv(FileEnv, path)
	t.Setenv("SECRET_HASH", "")
	t.Setenv("PORT", "8082")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "example/client", cfg.Release.Repository)
	assert.Equal(t, []string{"stable"}, cfg.Release.EnabledTracks)
	assert.Equal(t, []string{"aarch64-unknown-linux-gnu"}, cfg.Release.SupportedPlatforms)
	assert.Equal(t, "Cargo.toml", cfg.Release.ManifestPath, "unset file keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing secret hash",
			mutate:  func(c *Config) { c.Release.SecretHash = "" },
			wantErr: "SECRET_HASH",
		},
		{
			name:    "bad account",
			mutate:  func(c *Config) { c.Ledger.Account = "0x1234" },
			wantErr: "invalid account address",
		},
		{
			name:    "bad gas price",
			mutate:  func(c *Config) { c.Ledger.GasPrice = "lots" },
			wantErr: "invalid gas price",
		},
		{
			name:   "empty gas price allowed",
			mutate: func(c *Config) { c.Ledger.GasPrice = "" },
		},
		{
			name:    "unknown metadata source",
			mutate:  func(c *Config) { c.Release.MetadataSource = "scrape" },
			wantErr: "unknown metadata source",
		},
		{
			name:    "no platforms",
			mutate:  func(c *Config) { c.Release.SupportedPlatforms = nil },
			wantErr: "supported platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Release.SecretHash = testSecretHash
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
