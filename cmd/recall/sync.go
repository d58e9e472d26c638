package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/4thel00z/recall/internal"
)

func NewSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the current session transcript to the search backend",
		Long:  `Run the plugin sync script for the current transcript, once or continuously with --watch.`,
		RunE:  makeSyncRunner(a),
	}

	cmd.Flags().Bool("watch", false, "Keep watching the transcript and re-sync on changes")
	cmd.Flags().Duration("debounce", 0, "Debounce window for --watch (default from config)")
	return cmd
}

func makeSyncRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		if debounce <= 0 {
			debounce = a.cfg.SyncDebounce()
		}

		sessionID := os.Getenv(internal.EnvSessionID)
		transcript := os.Getenv(internal.EnvTranscriptPath)
		if sessionID == "" || transcript == "" {
			return fmt.Errorf("no active session (set %s and %s)", internal.EnvSessionID, internal.EnvTranscriptPath)
		}
		projectDir := os.Getenv(internal.EnvProjectDir)
		if projectDir == "" {
			projectDir, _ = os.Getwd()
		}

		runner, ok := internal.NewSyncRunner(os.Getenv(internal.EnvPluginRoot), a.cfg.SyncTimeout(), a.log)
		if !ok {
			return fmt.Errorf("sync script not found (set %s)", internal.EnvPluginRoot)
		}

		if !watch {
			runner.Run(cmd.Context(), transcript, sessionID, projectDir)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", transcript)
		return runner.Watch(cmd.Context(), transcript, sessionID, projectDir, debounce)
	}
}
