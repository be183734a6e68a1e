package cli

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"offertory/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("API_URL", "http://api.example.org")
	t.Setenv("WS_URL", "wss://api.example.org/ws")
	t.Setenv("SESSION_DB_PATH", filepath.Join(t.TempDir(), "offertory.db"))
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("AMQP_URL", "")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	require.Equal(t, "http://api.example.org", cfg.APIURL)

	t.Setenv("API_URL", "not a url")
	_, err = LoadAndValidateConfig()
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OFFERTORY_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("OFFERTORY_TEST_VALUE", "")
	os.Unsetenv("OFFERTORY_TEST_VALUE")

	LoadEnvFile(path)
	require.Equal(t, "from-file", os.Getenv("OFFERTORY_TEST_VALUE"))

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestInitSQLite(t *testing.T) {
	repo, err := InitSQLite(log.Discard(), filepath.Join(t.TempDir(), "offertory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Ping(context.Background()))
}

func TestGracefulShutdown(t *testing.T) {
	var cleaned bool
	ctx, done := gracefulShutdown(log.Discard(), time.Second, func(context.Context) { cleaned = true }, syscall.SIGUSR1)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	require.Error(t, ctx.Err())
	require.True(t, cleaned)
}
