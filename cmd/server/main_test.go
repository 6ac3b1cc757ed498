package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/store"
)

// ─── openStore ───────────────────────────────────────────────────────────────

func TestOpenStore_Memory(t *testing.T) {
	st, closeFn, err := openStore(context.Background(), config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &store.MemoryStore{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpenStore_InvalidURL(t *testing.T) {
	_, _, err := openStore(context.Background(), config.DatabaseConfig{
		Driver: "postgres",
		URL:    "not-a-valid-url",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── run() config validation tests ──────────────────────────────────────────

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORE_DRIVER", "DATABASE_URL", "REDIS_URL", "AI_PROVIDER",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestRun_FailsOnMissingConfig(t *testing.T) {
	clearConfigEnv(t)

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AI_PROVIDER", "ollama")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

func TestRun_FailsOnUnreachableRedis(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1")
	t.Setenv("AI_PROVIDER", "ollama")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestRun_AppliesLogLevel(t *testing.T) {
	clearConfigEnv(t)
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1")
	t.Setenv("AI_PROVIDER", "ollama")
	t.Setenv("LOG_LEVEL", "debug")

	_ = run()
	assert.Equal(t, slog.LevelDebug, logLevel.Level())
}

// ─── constants ──────────────────────────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
