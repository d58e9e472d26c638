package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePluginRoot lays out a plugin directory whose sync script records its
// arguments to a marker file.
func fakePluginRoot(t *testing.T) (root, marker string) {
	t.Helper()
	root = t.TempDir()
	marker = filepath.Join(root, "invoked.txt")

	scripts := filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0755))

	script := "#!/bin/sh\necho \"$@\" > " + marker + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(scripts, syncScriptName), []byte(script), 0755))
	return root, marker
}

func TestNewSyncRunnerMissingScript(t *testing.T) {
	_, ok := NewSyncRunner("", time.Second, nil)
	assert.False(t, ok)

	_, ok = NewSyncRunner(t.TempDir(), time.Second, nil)
	assert.False(t, ok)
}

func TestSyncRunnerRun(t *testing.T) {
	root, marker := fakePluginRoot(t)

	runner, ok := NewSyncRunner(root, 5*time.Second, nil)
	require.True(t, ok)

	runner.Run(context.Background(), "/tmp/transcript.jsonl", "sess-1", "/proj")

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Contains(t, string(data), "--single /tmp/transcript.jsonl sess-1 /proj")
}

func TestSyncRunnerRunSwallowsFailure(t *testing.T) {
	root := t.TempDir()
	scripts := filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, syncScriptName), []byte("#!/bin/sh\nexit 1\n"), 0755))

	runner, ok := NewSyncRunner(root, time.Second, nil)
	require.True(t, ok)

	// Must not panic or propagate the failure.
	runner.Run(context.Background(), "/tmp/t.jsonl", "sess-1", "/proj")
}

func TestSyncRunnerWatchSyncsOnWrite(t *testing.T) {
	root, marker := fakePluginRoot(t)

	dir := t.TempDir()
	transcript := filepath.Join(dir, "transcript.jsonl")
	require.NoError(t, os.WriteFile(transcript, []byte("{}\n"), 0644))

	runner, ok := NewSyncRunner(root, 5*time.Second, nil)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runner.Watch(ctx, transcript, "sess-1", "/proj", 50*time.Millisecond)
	}()

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(transcript, []byte("{}\n{}\n"), 0644))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
