package internal

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// syncScriptName is the plugin-provided script that exports a transcript
// into the search backend's collection.
const syncScriptName = "sync-sessions-to-qmd.sh"

// SyncRunner exports session transcripts to the search backend so future
// sessions can retrieve them. Runs are best effort: a broken or slow sync
// must never block the host (compaction proceeds regardless).
type SyncRunner struct {
	scriptPath string
	timeout    time.Duration
	log        *zap.Logger
}

// NewSyncRunner builds a runner for the sync script under pluginRoot.
// Returns ok=false when the script is absent, which callers treat as a
// silent no-op.
func NewSyncRunner(pluginRoot string, timeout time.Duration, log *zap.Logger) (*SyncRunner, bool) {
	if pluginRoot == "" {
		return nil, false
	}

	scriptPath := filepath.Join(pluginRoot, "scripts", syncScriptName)
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, false
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &SyncRunner{scriptPath: scriptPath, timeout: timeout, log: log}, true
}

// Run syncs a single transcript. Failures and timeouts are logged and
// swallowed.
func (r *SyncRunner) Run(ctx context.Context, transcriptPath, sessionID, projectDir string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.scriptPath, "--single", transcriptPath, sessionID, projectDir)
	if err := cmd.Run(); err != nil {
		r.log.Debug("sync failed", zap.String("transcript", transcriptPath), zap.Error(err))
		return
	}
	r.log.Info("transcript synced", zap.String("session", sessionID))
}

// Watch re-syncs the transcript whenever it changes, debounced. Blocks
// until ctx is cancelled. Replaces an external scheduler for keeping the
// collection fresh during long sessions.
func (r *SyncRunner) Watch(ctx context.Context, transcriptPath, sessionID, projectDir string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: the host may rotate or recreate the file.
	if err := watcher.Add(filepath.Dir(transcriptPath)); err != nil {
		return err
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != transcriptPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Debug("watch error", zap.Error(err))
		case <-timer.C:
			pending = false
			r.Run(ctx, transcriptPath, sessionID, projectDir)
		}
	}
}
