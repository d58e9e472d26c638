package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "qmd", cfg.Search.Binary)
	assert.Equal(t, "claude-sessions", cfg.Search.Collection)
	assert.Equal(t, 3, cfg.Memory.MaxResults)
	assert.Equal(t, []string{"Read", "Edit", "Write", "Glob", "Grep"}, cfg.Memory.ContextTools)
}

func TestLoadConfigPartialFileInheritsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  binary: custom-search
memory:
  max_results: 5
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-search", cfg.Search.Binary)
	assert.Equal(t, 5, cfg.Memory.MaxResults)
	// Unset fields keep their defaults.
	assert.Equal(t, "claude-sessions", cfg.Search.Collection)
	assert.Equal(t, 5, cfg.Search.TimeoutSeconds)
	assert.Equal(t, 500, cfg.Sync.DebounceMillis)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not: a: mapping"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Search.Collection = "my-sessions"
	cfg.Guard.SafeRemoveGlobs = []string{"scratch/**"}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "my-sessions", loaded.Search.Collection)
	assert.Equal(t, []string{"scratch/**"}, loaded.Guard.SafeRemoveGlobs)
}

func TestConfigDurations(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.SearchTimeout())
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 30*time.Second, cfg.SyncTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.SyncDebounce())
}
