package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/4thel00z/recall/internal"
	v1 "github.com/4thel00z/recall/pkg/v1"
)

// NewHookCmd groups the host-invoked hook drivers. Every driver reads a
// JSON event on stdin, optionally prints a JSON payload on stdout, and
// always exits success: the memory pipeline must never interrupt the host
// session.
func NewHookCmd(a *app) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:    "hook",
		Short:  "Host session hook drivers (internal)",
		Hidden: true,
	}

	hookCmd.AddCommand(
		&cobra.Command{
			Use:   "suggest",
			Short: "Suggest forking a similar past session on prompt submit",
			RunE:  makePipelineRunner(a, suggestConfig(a.cfg)),
		},
		&cobra.Command{
			Use:   "inject",
			Short: "Inject relevant past-session context before tool use",
			RunE:  makePipelineRunner(a, injectConfig(a.cfg)),
		},
		&cobra.Command{
			Use:   "prompt",
			Short: "Combined fork suggestion and memory context on prompt submit",
			RunE:  makePipelineRunner(a, promptConfig(a.cfg)),
		},
		&cobra.Command{
			Use:   "precompact",
			Short: "Sync the current transcript before compaction",
			RunE:  makePrecompactRunner(a),
		},
	)

	return hookCmd
}

func suggestConfig(cfg *internal.Config) internal.PipelineConfig {
	return internal.PipelineConfig{
		MaxResults:        1,
		Overfetch:         2,
		MaxKeywords:       cfg.Memory.PromptKeywords,
		MinTextLength:     cfg.Memory.MinPromptLength,
		SuggestOnly:       true,
		RequireCollection: true,
	}
}

func injectConfig(cfg *internal.Config) internal.PipelineConfig {
	return internal.PipelineConfig{
		MaxResults:    cfg.Memory.MaxResults,
		Overfetch:     2,
		MaxKeywords:   cfg.Memory.ThinkingKeywords,
		MinTextLength: cfg.Memory.MinPromptLength,
		Tools:         cfg.Memory.ContextTools,
		UseThinking:   true,
		UseQueryGate:  true,
	}
}

func promptConfig(cfg *internal.Config) internal.PipelineConfig {
	return internal.PipelineConfig{
		EventName:     "UserPromptSubmit",
		MaxResults:    cfg.Memory.MaxResults,
		Overfetch:     2,
		MaxKeywords:   cfg.Memory.PromptKeywords,
		MinTextLength: cfg.Memory.MinPromptLength,
		FilterSelf:    true,
		ForkLead:      true,
		FetchContent:  true,
	}
}

func makePipelineRunner(a *app, cfg internal.PipelineConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		p := internal.NewPipeline(cfg, a.searcher, a.dedup, nil, a.cfg.Search.FetchMaxLines, a.log)
		return runPipeline(cmd.Context(), p, cmd.InOrStdin(), cmd.OutOrStdout())
	}
}

// runPipeline decodes the event, runs the pipeline, and prints the output
// if there is one. It never returns an error: anything that goes wrong is
// a silent no-op.
func runPipeline(ctx context.Context, p *internal.Pipeline, in io.Reader, out io.Writer) error {
	ev, ok := decodeEvent(in)
	if !ok {
		return nil
	}

	result := p.Run(ctx, ev)
	if result == nil {
		return nil
	}

	_ = json.NewEncoder(out).Encode(result)
	return nil
}

func makePrecompactRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ev, _ := decodeEvent(cmd.InOrStdin())

		sessionID, transcript, projectDir := syncTarget(ev)
		if sessionID == "" || transcript == "" {
			return nil
		}

		runner, ok := internal.NewSyncRunner(os.Getenv(internal.EnvPluginRoot), a.cfg.SyncTimeout(), a.log)
		if !ok {
			return nil
		}

		runner.Run(cmd.Context(), transcript, sessionID, projectDir)
		return nil
	}
}

// syncTarget resolves the session to sync from the event, falling back to
// the host environment.
func syncTarget(ev *v1.Event) (sessionID, transcript, projectDir string) {
	if ev != nil {
		sessionID = ev.SessionID
		transcript = ev.TranscriptPath
		projectDir = ev.CWD
	}
	if sessionID == "" {
		sessionID = os.Getenv(internal.EnvSessionID)
	}
	if transcript == "" {
		transcript = os.Getenv(internal.EnvTranscriptPath)
	}
	if projectDir == "" {
		projectDir = os.Getenv(internal.EnvProjectDir)
	}
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	return sessionID, transcript, projectDir
}

// decodeEvent parses the triggering event from stdin. A malformed event is
// a normal no-op, not an error.
func decodeEvent(r io.Reader) (*v1.Event, bool) {
	var ev v1.Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return nil, false
	}
	return &ev, true
}
