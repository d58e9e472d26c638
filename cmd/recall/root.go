package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recall",
		Short:         "Session-memory hooks for coding assistants",
		Long:          `Retrieves related past sessions and injects them as context, with cross-invocation deduplication.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		rootCmd.AddCommand(
			NewHookCmd(a),
			NewGuardCmd(a),
			NewPrdCmd(),
			NewSyncCmd(a),
			NewStatusCmd(a),
		)
	}

	return rootCmd
}
