package configwatcher

import (
	"career_advisor_backend/internal/config"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
server:
  port: "8080"
  mode: release
database:
  driver: sqlite
  path: ":memory:"
ai:
  provider: ollama
  timeout_seconds: %d
storage:
  type: local
  local_path: %s
`

func writeConfig(t *testing.T, dir string, timeout int) {
	t.Helper()
	content := []byte(fmt.Sprintf(baseConfig, timeout, filepath.Join(dir, "uploads")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	require.NoError(t, Watch(ctx, dir, func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}))

	writeConfig(t, dir, 90)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 90*time.Second, cfg.AI.Timeout())
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), func(*config.Config) {})
	assert.Error(t, err)
}
