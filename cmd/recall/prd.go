package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/4thel00z/recall/internal"
)

func NewPrdCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "prd-check",
		Short:  "Validate prd.json writes against the PRD schema",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code := runPrdCheck(cmd.InOrStdin(), cmd.ErrOrStderr())
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

// runPrdCheck validates a Write of prd.json. Non-PRD writes and
// unparseable events pass through untouched.
func runPrdCheck(in io.Reader, errW io.Writer) int {
	ev, ok := decodeEvent(in)
	if !ok {
		return 0
	}

	if ev.ToolName != "Write" {
		return 0
	}

	var toolInput struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(ev.ToolInput, &toolInput); err != nil {
		return 0
	}
	if !strings.HasSuffix(toolInput.FilePath, "prd.json") {
		return 0
	}

	errs := internal.ValidatePRD(toolInput.Content)
	if len(errs) == 0 {
		return 0
	}

	fmt.Fprintln(errW, "BLOCKED: prd.json schema validation failed")
	fmt.Fprintln(errW, "\nErrors:")
	for _, e := range errs {
		fmt.Fprintf(errW, "  - %s\n", e)
	}
	fmt.Fprintln(errW, "\nFix these issues before writing prd.json.")
	return blockExitCode
}
