package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

type fileDocument struct {
	Network  string              `json:"network"`
	Accounts map[string][]string `json:"accounts"`
	Active   map[string]string   `json:"active"`
}

// FileStore keeps the registry in a single JSON document that is rewritten
// atomically on every change.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger.Named("registry")}
}

func (s *FileStore) load() (fileDocument, error) {
	doc := fileDocument{Accounts: map[string][]string{}, Active: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read registry: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode registry %s: %w", s.path, err)
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string][]string{}
	}
	if doc.Active == nil {
		doc.Active = map[string]string{}
	}
	return doc, nil
}

func (s *FileStore) save(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create registry dir: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return os.Rename(tmpPath, s.path)
}

func (s *FileStore) read(ctx context.Context, fn func(doc fileDocument)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

func (s *FileStore) update(ctx context.Context, fn func(doc *fileDocument)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(&doc)
	if err := s.save(doc); err != nil {
		s.logger.Error("registry write failed", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}

func (s *FileStore) GetNetwork(ctx context.Context) (string, error) {
	var id string
	err := s.read(ctx, func(doc fileDocument) { id = doc.Network })
	return id, err
}

func (s *FileStore) SetNetwork(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *fileDocument) { doc.Network = id })
}

func (s *FileStore) GetAccountList(ctx context.Context, networkID string) ([]string, error) {
	var out []string
	err := s.read(ctx, func(doc fileDocument) {
		out = append([]string{}, doc.Accounts[networkID]...)
	})
	return out, err
}

func (s *FileStore) SetAccountList(ctx context.Context, networkID string, accounts []string) error {
	list := Dedup(accounts)
	return s.update(ctx, func(doc *fileDocument) { doc.Accounts[networkID] = list })
}

func (s *FileStore) GetActiveAccount(ctx context.Context, networkID string) (string, error) {
	var addr string
	err := s.read(ctx, func(doc fileDocument) { addr = doc.Active[networkID] })
	return addr, err
}

func (s *FileStore) SetActiveAccount(ctx context.Context, networkID, address string) error {
	if address == "" {
		return s.ClearActiveAccount(ctx, networkID)
	}
	return s.update(ctx, func(doc *fileDocument) { doc.Active[networkID] = address })
}

func (s *FileStore) ClearActiveAccount(ctx context.Context, networkID string) error {
	return s.update(ctx, func(doc *fileDocument) { delete(doc.Active, networkID) })
}

func (s *FileStore) Close() error { return nil }
