package storage

import (
	"context"
	"path/filepath"
	"testing"

	"todo-manager/backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSlot_Backends(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "memory", cfg: config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}},
		{name: "file", cfg: config.Config{Storage: config.StorageConfig{Backend: config.BackendFile, Dir: filepath.Join(dir, "files")}}},
		{name: "sqlite", cfg: config.Config{Storage: config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "db", "tasks.db")}}},
		{name: "redis", cfg: config.Config{
			Storage: config.StorageConfig{Backend: config.BackendRedis},
			Redis:   config.RedisConfig{Host: mr.Host(), Port: mr.Port(), KeyPrefix: "t:"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := OpenSlot(&tt.cfg)
			require.NoError(t, err)
			defer slot.Close()

			ctx := context.Background()
			require.NoError(t, slot.Set(ctx, "tasks", []byte("[]")))
			got, err := slot.Get(ctx, "tasks")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))
		})
	}
}

func TestOpenSlot_WrapsWithBreaker(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Breaker: config.BreakerConfig{Enabled: true, MaxFailures: 3},
	}

	slot, err := OpenSlot(cfg)
	require.NoError(t, err)

	guarded, ok := slot.(*GuardedSlot)
	require.True(t, ok, "expected *GuardedSlot, got %T", slot)
	assert.Equal(t, CircuitBreakerClosed, guarded.Breaker().GetState())
}

func TestOpenSlot_UnknownBackend(t *testing.T) {
	_, err := OpenSlot(&config.Config{Storage: config.StorageConfig{Backend: "s3"}})
	assert.Error(t, err)
}
