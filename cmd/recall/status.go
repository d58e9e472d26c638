package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/recall/internal"
)

func NewStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend and session state",
		RunE:  makeStatusRunner(a),
	}
}

func makeStatusRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		st := internal.GatherStatus(cmd.Context(), a.cfg, a.searcher, a.dedup)

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend:    %s (available: %v)\n", st.Backend, st.BackendAvailable)
		fmt.Fprintf(out, "Collection: %s (exists: %v)\n", st.Collection, st.CollectionExists)
		fmt.Fprintf(out, "Session:    %s (%d memories shown)\n", st.SessionID, st.ShownCount)
		if st.GitBranch != "" {
			fmt.Fprintf(out, "Project:    %s (branch %s)\n", st.ProjectDir, st.GitBranch)
		} else if st.ProjectDir != "" {
			fmt.Fprintf(out, "Project:    %s\n", st.ProjectDir)
		}
		return nil
	}
}
