package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: "test"
pgsql:
  host: "db"
http_server:
  address: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, BackendPostgres, cfg.CatalogBackend)
	assert.Equal(t, "db", cfg.PGSQL.Host)
	assert.Equal(t, "5432", cfg.PGSQL.Port)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, 4, cfg.Ingest.MaxParallel)
	assert.Equal(t, "songs", cfg.Ingest.Folder)
	assert.Equal(t, "audio", cfg.Ingest.ResourceType)
	assert.Equal(t, []string{"audio/mpeg", "audio/mp3"}, cfg.Media.AllowedMimeTypes)
	assert.Equal(t, 24*time.Hour, cfg.Sweeper.GracePeriod)
	assert.Equal(t, 2*time.Second, cfg.Watcher.Debounce)
}

func TestLoadReadsSections(t *testing.T) {
	path := writeConfig(t, `
env: "local"
catalog_backend: "memory"
pgsql:
  host: "localhost"
http_server:
  address: "localhost:8080"
ingest:
  max_parallel: 8
watcher:
  paths: ["/srv/incoming", "/srv/more"]
  owner_id: "robot"
sweeper:
  interval: "15m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, 8, cfg.Ingest.MaxParallel)
	assert.Equal(t, []string{"/srv/incoming", "/srv/more"}, cfg.Watcher.Paths)
	assert.Equal(t, "robot", cfg.Watcher.OwnerID)
	assert.Equal(t, 15*time.Minute, cfg.Sweeper.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Contains(t, err.Error(), "nope.yaml")
}
