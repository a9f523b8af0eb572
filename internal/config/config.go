// Package config loads the vault configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/time_vault/pkg/logger"
)

// Config is the full runtime configuration for the vault daemon.
type Config struct {
	Server  ServerConfig         `yaml:"server"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Store   StoreConfig          `yaml:"store"`
	Cache   CacheConfig          `yaml:"cache"`
	Chain   ChainConfig          `yaml:"chain"`
	Auth    AuthConfig           `yaml:"auth"`
	Sweep   SweepConfig          `yaml:"sweep"`
	Watcher WatcherConfig        `yaml:"watcher"`
	Audit   AuditConfig          `yaml:"audit"`
}

// AuditConfig controls the mutating-call audit trail.
type AuditConfig struct {
	File string `yaml:"file" env:"VAULT_AUDIT_FILE"`
	Max  int    `yaml:"max_entries" env:"VAULT_AUDIT_MAX_ENTRIES"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host              string        `yaml:"host" env:"VAULT_SERVER_HOST"`
	Port              int           `yaml:"port" env:"VAULT_SERVER_PORT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"VAULT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"VAULT_SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"VAULT_SERVER_SHUTDOWN_TIMEOUT"`
	RequestsPerSecond int           `yaml:"requests_per_second" env:"VAULT_SERVER_RPS"`
	Burst             int           `yaml:"burst" env:"VAULT_SERVER_BURST"`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"VAULT_SERVER_ALLOWED_ORIGINS"`
}

// StoreConfig selects and configures the lock registry backend.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `yaml:"backend" env:"VAULT_STORE_BACKEND"`
	DSN     string `yaml:"dsn" env:"VAULT_STORE_DSN"`
}

// CacheConfig configures the optional Redis balance cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" env:"VAULT_CACHE_ENABLED"`
	Address string        `yaml:"address" env:"VAULT_CACHE_ADDRESS"`
	TTL     time.Duration `yaml:"ttl" env:"VAULT_CACHE_TTL"`
}

// ChainConfig holds the Neo RPC endpoint and the vault's signing accounts.
type ChainConfig struct {
	RPCURL        string `yaml:"rpc_url" env:"VAULT_CHAIN_RPC_URL"`
	NetworkID     uint32 `yaml:"network_id" env:"VAULT_CHAIN_NETWORK_ID"`
	VaultWIF      string `yaml:"vault_wif" env:"VAULT_CHAIN_VAULT_WIF"`
	ControllerWIF string `yaml:"controller_wif" env:"VAULT_CHAIN_CONTROLLER_WIF"`
}

// AuthConfig carries the JWT signing secret for the API surface.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"VAULT_AUTH_JWT_SECRET"`
}

// SweepConfig controls the scheduled native-currency sweep.
type SweepConfig struct {
	Enabled  bool   `yaml:"enabled" env:"VAULT_SWEEP_ENABLED"`
	Schedule string `yaml:"schedule" env:"VAULT_SWEEP_SCHEDULE"`
}

// WatcherConfig controls the maturity watcher interval.
type WatcherConfig struct {
	Interval time.Duration `yaml:"interval" env:"VAULT_WATCHER_INTERVAL"`
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Store: StoreConfig{Backend: "memory"},
		Cache: CacheConfig{TTL: 15 * time.Second},
		Chain: ChainConfig{
			RPCURL:    "http://localhost:10332",
			NetworkID: 860833102, // N3 mainnet magic
		},
		Sweep:   SweepConfig{Schedule: "0 3 * * *"},
		Watcher: WatcherConfig{Interval: time.Minute},
		Audit:   AuditConfig{Max: 200},
	}
}

// Load reads the YAML file at path (if it exists), applies environment
// overrides and validates the result. A .env file in the working directory
// is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store: postgres backend requires a dsn")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	if c.Cache.Enabled && c.Cache.Address == "" {
		return fmt.Errorf("cache: enabled but no address configured")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain: rpc_url is required")
	}
	return nil
}

// ListenAddr formats the HTTP bind address.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
