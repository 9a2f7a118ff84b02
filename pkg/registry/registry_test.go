package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"zondwallet/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, r Registry) {
	ctx := context.Background()

	id, err := r.GetNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", id)

	require.NoError(t, r.SetNetwork(ctx, "TEST_NET"))
	id, err = r.GetNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TEST_NET", id)

	list, err := r.GetAccountList(ctx, "TEST_NET")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, r.SetAccountList(ctx, "TEST_NET", []string{"0xA", "0xB", "0xA"}))
	list, err = r.GetAccountList(ctx, "TEST_NET")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xA", "0xB"}, list)

	other, err := r.GetAccountList(ctx, "DEV")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, r.SetActiveAccount(ctx, "TEST_NET", "0xB"))
	active, err := r.GetActiveAccount(ctx, "TEST_NET")
	require.NoError(t, err)
	assert.Equal(t, "0xB", active)

	active, err = r.GetActiveAccount(ctx, "DEV")
	require.NoError(t, err)
	assert.Equal(t, "", active)

	require.NoError(t, r.ClearActiveAccount(ctx, "TEST_NET"))
	active, err = r.GetActiveAccount(ctx, "TEST_NET")
	require.NoError(t, err)
	assert.Equal(t, "", active)

	require.NoError(t, r.SetActiveAccount(ctx, "TEST_NET", "0xA"))
	require.NoError(t, r.SetActiveAccount(ctx, "TEST_NET", ""))
	active, err = r.GetActiveAccount(ctx, "TEST_NET")
	require.NoError(t, err)
	assert.Equal(t, "", active)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.GetNetwork(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "registry.json"), nil)
	defer func() { _ = s.Close() }()
	testRegistry(t, s)
}

func TestFileStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	ctx := context.Background()

	first := NewFileStore(path, nil)
	require.NoError(t, first.SetAccountList(ctx, "DEV", []string{"0x1"}))

	second := NewFileStore(path, nil)
	list, err := second.GetAccountList(ctx, "DEV")
	require.NoError(t, err)
	assert.Equal(t, []string{"0x1"}, list)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewFileStore(path, nil)
	_, err := s.GetAccountList(context.Background(), "DEV")
	assert.Error(t, err)
}

func TestLevelStore(t *testing.T) {
	s, err := NewMemLevelStore(nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	testRegistry(t, s)
}

func TestLevelStore_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	s, err := OpenLevelStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetNetwork(ctx, "DEV"))
	require.NoError(t, s.Close())

	s, err = OpenLevelStore(path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	id, err := s.GetNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DEV", id)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	r, err := Open(cfg, filepath.Join(dir, "cfg.json"), nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, r)
	_ = r.Close()

	cfg.Registry.Backend = config.RegistryLevelDB
	r, err = Open(cfg, filepath.Join(dir, "cfg.json"), nil)
	require.NoError(t, err)
	assert.IsType(t, &LevelStore{}, r)
	_ = r.Close()

	cfg.Registry.Backend = "redis"
	_, err = Open(cfg, filepath.Join(dir, "cfg.json"), nil)
	assert.Error(t, err)
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedup([]string{"a", "b", "a", "", "c", "b"}))
	assert.Equal(t, []string{"A", "a"}, Dedup([]string{"A", "a"}))
	assert.Empty(t, Dedup(nil))
}
