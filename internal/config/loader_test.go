package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderDefaultsWithoutFile(t *testing.T) {
	l := NewLoader("")
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoaderMergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commit_hash: abc123\nobscalc:\n  worker_pool_size: 8\n"), 0o644))

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.CommitHash)
	assert.Equal(t, 8, cfg.Obscalc.WorkerPoolSize)
	// Unset fields keep Default()'s populated values, since yaml.Unmarshal
	// only overwrites fields explicitly present in the document onto the
	// pre-seeded Default() value.
	assert.Equal(t, Default().Itc.CacheCapacity, cfg.Itc.CacheCapacity)
}

func TestLoaderWatchChangesReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commit_hash: v1\n"), 0o644))

	l := NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	changes, errs, err := l.WatchChanges(ctx)
	require.NoError(t, err)
	defer l.Teardown()

	require.NoError(t, os.WriteFile(path, []byte("commit_hash: v2\n"), 0o644))

	select {
	case c := <-changes:
		assert.Equal(t, "v2", c.Config.CommitHash)
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(4 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
