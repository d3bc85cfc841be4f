// Package config loads the relay's process-wide configuration.
//
// Values come from built-in defaults, then an optional YAML file named by
// PUSH_RELEASE_CONFIG, then environment variables. The resulting Config is
// treated as read-only once Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at an optional YAML config file.
const FileEnv = "PUSH_RELEASE_CONFIG"

// Metadata source modes
const (
	SourceManifest = "manifest"
	SourceLegacy   = "legacy"
)

// Config holds all configuration for the relay
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Release   ReleaseConfig   `yaml:"release"`
	Fetch     FetchConfig     `yaml:"fetch"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Security  SecurityConfig  `yaml:"security"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int    `yaml:"port"`
	Host         string `yaml:"host"`
	ReadTimeout  int    `yaml:"readTimeout"`  // seconds
	WriteTimeout int    `yaml:"writeTimeout"` // seconds
	IdleTimeout  int    `yaml:"idleTimeout"`  // seconds
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// LedgerConfig describes the node and the account that signs registrations.
type LedgerConfig struct {
	RPCURL   string `yaml:"rpcUrl"`
	Timeout  int    `yaml:"timeout"` // seconds, 0 = none
	Account  string `yaml:"account"`
	Password string `yaml:"password"`
	GasPrice string `yaml:"gasPrice"` // hex quantity, empty = let the node decide
}

// ReleaseConfig holds the registration policy.
type ReleaseConfig struct {
	SecretHash         string   `yaml:"secretHash"`
	Repository         string   `yaml:"repository"`
	RawBaseURL         string   `yaml:"rawBaseUrl"`
	AssetBaseURL       string   `yaml:"assetBaseUrl"`
	MetadataSource     string   `yaml:"metadataSource"`
	ManifestPath       string   `yaml:"manifestPath"`
	EnabledTracks      []string `yaml:"enabledTracks"`
	SupportedPlatforms []string `yaml:"supportedPlatforms"`
}

// FetchConfig tunes the metadata fetcher's HTTP client.
type FetchConfig struct {
	Timeout     int `yaml:"timeout"` // seconds
	MaxAttempts int `yaml:"maxAttempts"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requestsPerMin"`
	BurstSize      int  `yaml:"burstSize"`
}

// SecurityConfig holds request hardening settings
type SecurityConfig struct {
	MaxBodySizeKB int `yaml:"maxBodySizeKb"`
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool     `yaml:"trustProxy"`
	TrustedProxies []string `yaml:"trustedProxies"` // CIDR notation
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         1337,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ledger: LedgerConfig{
			RPCURL:   "http://localhost:8545",
			Account:  "0x0066AC7A4608f350BF9a0323D60dDe211Dfb27c0",
			GasPrice: "0x4F9ACA000",
		},
		Release: ReleaseConfig{
			Repository:     "paritytech/parity",
			RawBaseURL:     "https://raw.githubusercontent.com",
			AssetBaseURL:   "http://d1h4xl4cr1h0mo.cloudfront.net",
			MetadataSource: SourceManifest,
			ManifestPath:   "Cargo.toml",
			EnabledTracks:  []string{"stable", "beta"},
			SupportedPlatforms: []string{
				"x86_64-apple-darwin",
				"x86_64-pc-windows-msvc",
				"x86_64-unknown-linux-gnu",
			},
		},
		Fetch: FetchConfig{
			Timeout:     30,
			MaxAttempts: 3,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 120,
			BurstSize:      20,
		},
		Security: SecurityConfig{
			MaxBodySizeKB: 64,
		},
		Proxy: ProxyConfig{
			TrustedProxies: []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from defaults, the optional YAML file and the environment,
// then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.Ledger.RPCURL = getEnv("RPC_URL", cfg.Ledger.RPCURL)
	cfg.Ledger.Timeout = getEnvInt("RPC_TIMEOUT", cfg.Ledger.Timeout)
	cfg.Ledger.Account = getEnv("ACCOUNT_ADDRESS", cfg.Ledger.Account)
	cfg.Ledger.Password = getEnv("ACCOUNT_PASSWORD", cfg.Ledger.Password)
	// An empty GAS_PRICE omits the gas price from transactions.
	if value, ok := os.LookupEnv("GAS_PRICE"); ok {
		cfg.Ledger.GasPrice = value
	}

	cfg.Release.SecretHash = getEnv("SECRET_HASH", cfg.Release.SecretHash)
	cfg.Release.Repository = getEnv("GITHUB_REPO", cfg.Release.Repository)
	cfg.Release.RawBaseURL = getEnv("GITHUB_RAW_URL", cfg.Release.RawBaseURL)
	cfg.Release.AssetBaseURL = getEnv("ASSET_BASE_URL", cfg.Release.AssetBaseURL)
	cfg.Release.MetadataSource = getEnv("METADATA_SOURCE", cfg.Release.MetadataSource)
	cfg.Release.ManifestPath = getEnv("MANIFEST_PATH", cfg.Release.ManifestPath)
	cfg.Release.EnabledTracks = getEnvStringSlice("ENABLED_TRACKS", cfg.Release.EnabledTracks)
	cfg.Release.SupportedPlatforms = getEnvStringSlice("SUPPORTED_PLATFORMS", cfg.Release.SupportedPlatforms)

	cfg.Fetch.Timeout = getEnvInt("FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.MaxAttempts = getEnvInt("FETCH_MAX_ATTEMPTS", cfg.Fetch.MaxAttempts)

	cfg.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMin = getEnvInt("RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMin)
	cfg.RateLimit.BurstSize = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.BurstSize)

	cfg.Security.MaxBodySizeKB = getEnvInt("MAX_BODY_SIZE_KB", cfg.Security.MaxBodySizeKB)

	cfg.Proxy.TrustProxy = getEnvBool("TRUST_PROXY", cfg.Proxy.TrustProxy)
	cfg.Proxy.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", cfg.Proxy.TrustedProxies)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if !isHex(strings.TrimPrefix(c.Release.SecretHash, "0x"), 64) {
		errs = append(errs, errors.New("SECRET_HASH must be a 64 character keccak-256 hex digest"))
	}
	if !common.IsHexAddress(c.Ledger.Account) {
		errs = append(errs, fmt.Errorf("invalid account address %q", c.Ledger.Account))
	}
	if c.Ledger.GasPrice != "" {
		if _, err := hexutil.DecodeBig(c.Ledger.GasPrice); err != nil {
			errs = append(errs, fmt.Errorf("invalid gas price %q: %w", c.Ledger.GasPrice, err))
		}
	}
	switch c.Release.MetadataSource {
	case SourceManifest, SourceLegacy:
	default:
		errs = append(errs, fmt.Errorf("unknown metadata source %q", c.Release.MetadataSource))
	}
	if len(c.Release.SupportedPlatforms) == 0 {
		errs = append(errs, errors.New("at least one supported platform is required"))
	}
	for _, p := range c.Release.SupportedPlatforms {
		if len(p) > 32 {
			errs = append(errs, fmt.Errorf("platform %q does not fit in 32 bytes", p))
		}
	}
	if c.Release.Repository == "" {
		errs = append(errs, errors.New("GITHUB_REPO is required"))
	}

	return errors.Join(errs...)
}

func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
