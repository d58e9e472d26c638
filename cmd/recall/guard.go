package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/4thel00z/recall/internal"
)

// blockExitCode tells the host to block the pending tool use and show
// stderr to the assistant.
const blockExitCode = 2

func NewGuardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    "guard",
		Short:  "Block destructive git and filesystem commands",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code := runGuard(cmd.InOrStdin(), cmd.ErrOrStderr(), a.cfg.Guard.SafeRemoveGlobs)
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

// runGuard classifies the Bash command in the event and returns the exit
// code: 0 to allow, blockExitCode to block. Anything unparseable is
// allowed; only a confident destructive match blocks.
func runGuard(in io.Reader, errW io.Writer, safeGlobs []string) int {
	ev, ok := decodeEvent(in)
	if !ok {
		return 0
	}

	if ev.ToolName != "Bash" {
		return 0
	}

	var toolInput struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(ev.ToolInput, &toolInput); err != nil || toolInput.Command == "" {
		return 0
	}

	decision := internal.CheckCommand(toolInput.Command, safeGlobs)
	if !decision.Block {
		return 0
	}

	command := toolInput.Command
	if len(command) > 100 {
		command = command[:100] + "..."
	}
	fmt.Fprintf(errW, "BLOCKED: %s\n", decision.Reason)
	fmt.Fprintf(errW, "Command: %s\n", command)
	fmt.Fprintln(errW, "\nIf you need to run this command, ask the user to run it manually.")
	return blockExitCode
}
