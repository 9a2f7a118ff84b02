package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"zondwallet/pkg/models"

	"github.com/kelseyhightower/envconfig"
)

const ConfigFileName = ".zondwallet.json"

const (
	RegistryFile    = "file"
	RegistryLevelDB = "leveldb"
)

// RegistryConfig selects where accounts and selections are persisted.
type RegistryConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
}

// Config holds application-wide settings.
type Config struct {
	Networks             []models.Network `json:"networks"`
	DefaultNetwork       string           `json:"default_network"`
	Registry             RegistryConfig   `json:"registry"`
	RPCTimeoutSeconds    int              `json:"rpc_timeout_seconds"`
	MaxConcurrentFetches int              `json:"max_concurrent_fetches"`
	TokenCacheTTLSeconds int              `json:"token_cache_ttl_seconds"`
	LogLevel             string           `json:"log_level"`
	LogFile              string           `json:"log_file,omitempty"`
	Port                 int              `json:"port"`
}

// Env holds overrides read from ZWALLET_* environment variables.
type Env struct {
	ConfigPath string `envconfig:"CONFIG"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	LogFile    string `envconfig:"LOG_FILE"`
	Port       int    `envconfig:"PORT"`
	Registry   string `envconfig:"REGISTRY"`
}

// DefaultNetworks is the built-in network catalogue.
func DefaultNetworks() []models.Network {
	return []models.Network{
		{ID: "DEV", Name: "Zond Local Node", RPCURL: "http://127.0.0.1:8545", Symbol: "ZND"},
		{ID: "TEST_NET", Name: "Zond Testnet", RPCURL: "https://qrlwallet.com/api/zond-rpc/testnet", Symbol: "ZND"},
		{ID: "MAIN_NET", Name: "Zond Mainnet", RPCURL: "https://qrlwallet.com/api/zond-rpc/mainnet", Symbol: "ZND"},
	}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Networks:             DefaultNetworks(),
		DefaultNetwork:       "TEST_NET",
		Registry:             RegistryConfig{Backend: RegistryFile},
		RPCTimeoutSeconds:    15,
		MaxConcurrentFetches: 8,
		TokenCacheTTLSeconds: 600,
		LogLevel:             "info",
		Port:                 8080,
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadEnv reads ZWALLET_* overrides.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("zwallet", &e); err != nil {
		return Env{}, fmt.Errorf("failed to process environment: %w", err)
	}
	return e, nil
}

// ApplyEnv overlays non-empty environment values onto the config.
func (c *Config) ApplyEnv(e Env) {
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.LogFile != "" {
		c.LogFile = e.LogFile
	}
	if e.Port != 0 {
		c.Port = e.Port
	}
	if e.Registry != "" {
		c.Registry.Backend = e.Registry
	}
}

// Network looks up a network by id.
func (c Config) Network(id string) (models.Network, bool) {
	for _, n := range c.Networks {
		if n.ID == id {
			return n, true
		}
	}
	return models.Network{}, false
}

// RegistryPath resolves where the registry lives, next to the config file
// unless configured explicitly.
func (c Config) RegistryPath(configPath string) string {
	if c.Registry.Path != "" {
		return c.Registry.Path
	}
	dir := filepath.Dir(configPath)
	if c.Registry.Backend == RegistryLevelDB {
		return filepath.Join(dir, ".zondwallet-registry")
	}
	return filepath.Join(dir, ".zondwallet-registry.json")
}

func (c Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSeconds) * time.Second
}

func (c Config) TokenCacheTTL() time.Duration {
	return time.Duration(c.TokenCacheTTLSeconds) * time.Second
}

// Validate checks the structural integrity of the configuration.
func (c Config) Validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("validation failed: configuration must have at least one network")
	}
	seen := make(map[string]bool)
	for i, n := range c.Networks {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("validation failed: network at index %d has no id", i)
		}
		if seen[n.ID] {
			return fmt.Errorf("validation failed: duplicate network id %s", n.ID)
		}
		seen[n.ID] = true
		if strings.TrimSpace(n.RPCURL) == "" {
			return fmt.Errorf("validation failed: network %s has no RPC URL", n.ID)
		}
	}
	if _, ok := c.Network(c.DefaultNetwork); !ok {
		return fmt.Errorf("validation failed: default network %q is not configured", c.DefaultNetwork)
	}
	switch c.Registry.Backend {
	case RegistryFile, RegistryLevelDB:
	default:
		return fmt.Errorf("validation failed: unknown registry backend %q", c.Registry.Backend)
	}
	return nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		Networks             []models.Network `json:"networks"`
		DefaultNetwork       string           `json:"default_network"`
		Registry             *RegistryConfig  `json:"registry"`
		RPCTimeoutSeconds    *int             `json:"rpc_timeout_seconds"`
		MaxConcurrentFetches *int             `json:"max_concurrent_fetches"`
		TokenCacheTTLSeconds *int             `json:"token_cache_ttl_seconds"`
		LogLevel             string           `json:"log_level"`
		LogFile              string           `json:"log_file"`
		Port                 *int             `json:"port"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if len(raw.Networks) > 0 {
		cfg.Networks = raw.Networks
		cfg.DefaultNetwork = raw.Networks[0].ID
	}
	for i := range cfg.Networks {
		if cfg.Networks[i].Symbol == "" {
			cfg.Networks[i].Symbol = "ZND"
		}
		if cfg.Networks[i].Name == "" {
			cfg.Networks[i].Name = cfg.Networks[i].ID
		}
	}
	if raw.DefaultNetwork != "" {
		cfg.DefaultNetwork = raw.DefaultNetwork
	}
	if raw.Registry != nil {
		if raw.Registry.Backend != "" {
			cfg.Registry.Backend = raw.Registry.Backend
		}
		cfg.Registry.Path = raw.Registry.Path
	}
	if raw.RPCTimeoutSeconds != nil {
		cfg.RPCTimeoutSeconds = *raw.RPCTimeoutSeconds
	}
	if raw.MaxConcurrentFetches != nil {
		cfg.MaxConcurrentFetches = *raw.MaxConcurrentFetches
	}
	if raw.TokenCacheTTLSeconds != nil {
		cfg.TokenCacheTTLSeconds = *raw.TokenCacheTTLSeconds
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	cfg.LogFile = raw.LogFile
	if raw.Port != nil {
		cfg.Port = *raw.Port
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
