package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"go.uber.org/zap"
)

var (
	networkKey     = []byte("network")
	accountsPrefix = "accounts/"
	activePrefix   = "active/"
)

// LevelStore keeps the registry in a goleveldb database.
type LevelStore struct {
	db     *leveldb.DB
	logger *zap.Logger
}

// OpenLevelStore opens or creates a database directory at path.
func OpenLevelStore(path string, logger *zap.Logger) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database %s: %w", path, err)
	}
	return newLevelStore(db, logger), nil
}

// NewMemLevelStore returns a LevelStore backed by memory only.
func NewMemLevelStore(logger *zap.Logger) (*LevelStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newLevelStore(db, logger), nil
}

func newLevelStore(db *leveldb.DB, logger *zap.Logger) *LevelStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LevelStore{db: db, logger: logger.Named("registry")}
}

func (s *LevelStore) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry read %s: %w", key, err)
	}
	return val, nil
}

func (s *LevelStore) put(ctx context.Context, key, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Put(key, val, nil); err != nil {
		s.logger.Error("registry write failed", zap.ByteString("key", key), zap.Error(err))
		return fmt.Errorf("registry write %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) GetNetwork(ctx context.Context) (string, error) {
	val, err := s.get(ctx, networkKey)
	return string(val), err
}

func (s *LevelStore) SetNetwork(ctx context.Context, id string) error {
	return s.put(ctx, networkKey, []byte(id))
}

func (s *LevelStore) GetAccountList(ctx context.Context, networkID string) ([]string, error) {
	val, err := s.get(ctx, []byte(accountsPrefix+networkID))
	if err != nil || val == nil {
		return []string{}, err
	}
	var out []string
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, fmt.Errorf("failed to decode account list for %s: %w", networkID, err)
	}
	return out, nil
}

func (s *LevelStore) SetAccountList(ctx context.Context, networkID string, accounts []string) error {
	data, err := json.Marshal(Dedup(accounts))
	if err != nil {
		return err
	}
	return s.put(ctx, []byte(accountsPrefix+networkID), data)
}

func (s *LevelStore) GetActiveAccount(ctx context.Context, networkID string) (string, error) {
	val, err := s.get(ctx, []byte(activePrefix+networkID))
	return string(val), err
}

func (s *LevelStore) SetActiveAccount(ctx context.Context, networkID, address string) error {
	if address == "" {
		return s.ClearActiveAccount(ctx, networkID)
	}
	return s.put(ctx, []byte(activePrefix+networkID), []byte(address))
}

func (s *LevelStore) ClearActiveAccount(ctx context.Context, networkID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Delete([]byte(activePrefix+networkID), nil)
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
