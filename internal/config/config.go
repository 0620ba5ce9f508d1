// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Supported database wire clients.
const (
	EnginePostgres   = "postgres"
	EngineClickHouse = "clickhouse"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SubscriptionID   string
	ARMEndpoint      string
	ARMToken         string
	ResourceProvider string
	APIVersion       string
	Engine           string
	ListenAddr       string
	DBPath           string
	KeyringService   string

	// SecretKey enables the encrypted SQLite vault used when the OS keychain
	// is unavailable. Empty disables it.
	SecretKey           string
	KeyringProbeTimeout time.Duration

	// RootCAFile optionally replaces the built-in pinned root CA.
	RootCAFile string
}

// HasManagementCredentials returns true when both the subscription and a
// bearer token are configured. Without them the tree root cannot be listed.
func (c *Config) HasManagementCredentials() bool {
	return c.SubscriptionID != "" && c.ARMToken != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// CLUSTERPANEL_SUBSCRIPTION_ID and CLUSTERPANEL_ARM_TOKEN are optional at load
// time; commands that reach the management API check HasManagementCredentials.
// Optional variables with defaults: CLUSTERPANEL_ARM_ENDPOINT
// (https://management.azure.com), CLUSTERPANEL_RESOURCE_PROVIDER
// (Microsoft.Kusto/clusters), CLUSTERPANEL_API_VERSION (2023-08-15),
// CLUSTERPANEL_ENGINE (postgres), CLUSTERPANEL_LISTEN_ADDR (127.0.0.1:8080),
// CLUSTERPANEL_DB_PATH (clusterpanel.db), CLUSTERPANEL_KEYRING_SERVICE
// (clusterpanel.passwords), CLUSTERPANEL_KEYRING_PROBE_TIMEOUT (5s).
func Load() (*Config, error) {
	cfg := &Config{
		SubscriptionID:      os.Getenv("CLUSTERPANEL_SUBSCRIPTION_ID"),
		ARMToken:            os.Getenv("CLUSTERPANEL_ARM_TOKEN"),
		SecretKey:           os.Getenv("CLUSTERPANEL_SECRET_KEY"),
		RootCAFile:          os.Getenv("CLUSTERPANEL_ROOT_CA_FILE"),
		ARMEndpoint:         lookupDefault("CLUSTERPANEL_ARM_ENDPOINT", "https://management.azure.com"),
		ResourceProvider:    lookupDefault("CLUSTERPANEL_RESOURCE_PROVIDER", "Microsoft.Kusto/clusters"),
		APIVersion:          lookupDefault("CLUSTERPANEL_API_VERSION", "2023-08-15"),
		Engine:              lookupDefault("CLUSTERPANEL_ENGINE", EnginePostgres),
		ListenAddr:          lookupDefault("CLUSTERPANEL_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:              lookupDefault("CLUSTERPANEL_DB_PATH", "clusterpanel.db"),
		KeyringService:      lookupDefault("CLUSTERPANEL_KEYRING_SERVICE", "clusterpanel.passwords"),
		KeyringProbeTimeout: 5 * time.Second,
	}

	if v, ok := os.LookupEnv("CLUSTERPANEL_KEYRING_PROBE_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CLUSTERPANEL_KEYRING_PROBE_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.KeyringProbeTimeout = parsed
	}

	switch cfg.Engine {
	case EnginePostgres, EngineClickHouse:
	default:
		return nil, fmt.Errorf("CLUSTERPANEL_ENGINE has unsupported value %q: expected %q or %q",
			cfg.Engine, EnginePostgres, EngineClickHouse)
	}

	return cfg, nil
}

// lookupDefault returns the value of key, or def when key is unset.
func lookupDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
