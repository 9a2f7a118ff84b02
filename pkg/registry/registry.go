// Package registry persists the selected network, the per-network account
// lists and the per-network active account.
package registry

import (
	"context"
	"fmt"

	"zondwallet/pkg/config"

	"go.uber.org/zap"
)

// Registry is the persistent store consumed by the wallet engine. An unset
// network or active account reads back as the empty string.
type Registry interface {
	GetNetwork(ctx context.Context) (string, error)
	SetNetwork(ctx context.Context, id string) error
	GetAccountList(ctx context.Context, networkID string) ([]string, error)
	SetAccountList(ctx context.Context, networkID string, accounts []string) error
	GetActiveAccount(ctx context.Context, networkID string) (string, error)
	SetActiveAccount(ctx context.Context, networkID, address string) error
	ClearActiveAccount(ctx context.Context, networkID string) error
	Close() error
}

// Open builds the registry backend selected in the configuration.
func Open(cfg config.Config, configPath string, logger *zap.Logger) (Registry, error) {
	path := cfg.RegistryPath(configPath)
	switch cfg.Registry.Backend {
	case config.RegistryFile, "":
		return NewFileStore(path, logger), nil
	case config.RegistryLevelDB:
		return OpenLevelStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}

// Dedup removes repeated addresses while keeping first-insertion order.
func Dedup(accounts []string) []string {
	seen := make(map[string]struct{}, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
