package internal

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	v1 "github.com/4thel00z/recall/pkg/v1"
)

// defaultRawQueryPrefix bounds the raw-text query used when keyword
// extraction yields nothing.
const defaultRawQueryPrefix = 200

// PipelineConfig parameterizes the shared retrieval pipeline per driver.
// The three drivers differ only in these knobs.
type PipelineConfig struct {
	// EventName, when set, wraps the assistant context in a
	// hookSpecificOutput block for that hook event; otherwise the context
	// is emitted as a top-level additionalContext field.
	EventName string

	// MaxResults bounds how many candidates are surfaced.
	MaxResults int

	// Overfetch asks the backend for extra results as dedup headroom.
	Overfetch int

	// MaxKeywords caps the extracted query terms.
	MaxKeywords int

	// MinTextLength gates short source text.
	MinTextLength int

	// Tools is the allow-list for tool-scoped drivers; empty disables the
	// gate.
	Tools []string

	// UseThinking sources the query from the transcript's last thinking
	// block instead of the prompt.
	UseThinking bool

	// UseQueryGate skips retrieval when the source text is unchanged
	// since the previous invocation.
	UseQueryGate bool

	// RequireCollection additionally verifies the backend collection
	// exists before querying.
	RequireCollection bool

	// FilterSelf drops candidates that reference the current session.
	FilterSelf bool

	// ForkLead gives the best candidate the rich fork-suggestion
	// treatment.
	ForkLead bool

	// FetchContent fetches full content for the best candidate.
	FetchContent bool

	// SuggestOnly renders a standalone fork suggestion for the single
	// best match.
	SuggestOnly bool
}

// Pipeline wires the query builder, retrieval client, dedup store, and
// context formatter into one driver run. It is state free: all shared
// state lives in the DedupStore files.
type Pipeline struct {
	cfg       PipelineConfig
	searcher  *Searcher
	dedup     *DedupStore
	extractor KeywordExtractor
	fetchMax  int
	log       *zap.Logger
}

func NewPipeline(cfg PipelineConfig, searcher *Searcher, dedup *DedupStore, extractor KeywordExtractor, fetchMaxLines int, log *zap.Logger) *Pipeline {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = MinTextLength
	}
	if extractor == nil {
		extractor = DefaultExtractor()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		searcher:  searcher,
		dedup:     dedup,
		extractor: extractor,
		fetchMax:  fetchMaxLines,
		log:       log,
	}
}

// Run executes one driver invocation. A nil result means "nothing to
// show": the caller prints nothing and exits success. Every failure mode
// inside the pipeline degrades to that same nil.
func (p *Pipeline) Run(ctx context.Context, ev *v1.Event) *v1.Output {
	if ev == nil {
		return nil
	}

	if !p.toolAllowed(ev.ToolName) {
		return nil
	}

	text := p.sourceText(ev)
	if len(text) < p.cfg.MinTextLength {
		return nil
	}

	if !p.searcher.Available() {
		p.log.Debug("search backend unavailable")
		return nil
	}
	if p.cfg.RequireCollection && !p.searcher.CollectionExists(ctx) {
		p.log.Debug("collection missing")
		return nil
	}

	session := p.sessionID(ev)

	if p.cfg.UseQueryGate && p.dedup.ShouldSkipQuery(session, text) {
		p.log.Debug("query unchanged, skipping", zap.String("session", session))
		return nil
	}

	query := p.buildQuery(text)
	if query == "" {
		return nil
	}

	candidates := p.searcher.Search(ctx, query, p.cfg.MaxResults+p.cfg.Overfetch)
	if p.cfg.FilterSelf {
		candidates = filterSelfSession(candidates, session)
	}
	if len(candidates) == 0 {
		return nil
	}

	shown := p.dedup.Shown(session)
	formatted := p.format(ctx, candidates, shown)
	if len(formatted.NewIDs) == 0 {
		return nil
	}

	p.dedup.AddShown(session, formatted.NewIDs)
	p.log.Info("context surfaced",
		zap.String("session", session),
		zap.String("query", query),
		zap.Int("candidates", len(formatted.NewIDs)))

	return p.buildOutput(formatted)
}

func (p *Pipeline) toolAllowed(tool string) bool {
	if len(p.cfg.Tools) == 0 {
		return true
	}
	for _, t := range p.cfg.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

func (p *Pipeline) sourceText(ev *v1.Event) string {
	if !p.cfg.UseThinking {
		return ev.Prompt
	}

	transcript := ev.TranscriptPath
	if transcript == "" {
		transcript = os.Getenv(EnvTranscriptPath)
	}
	if transcript == "" {
		return ""
	}
	return LastThinking(transcript)
}

func (p *Pipeline) sessionID(ev *v1.Event) string {
	if ev.SessionID != "" {
		return ev.SessionID
	}
	if env := os.Getenv(EnvSessionID); env != "" {
		return env
	}
	return UnknownSession
}

func (p *Pipeline) buildQuery(text string) string {
	keywords, err := p.extractor.Extract(text, p.cfg.MaxKeywords)
	if err == nil && len(keywords) > 0 {
		return KeywordsToQuery(keywords)
	}

	// Never an empty query unless the text itself is empty.
	prefix := strings.TrimSpace(text)
	if runes := []rune(prefix); len(runes) > defaultRawQueryPrefix {
		prefix = string(runes[:defaultRawQueryPrefix])
	}
	return prefix
}

func (p *Pipeline) format(ctx context.Context, candidates []Candidate, shown map[string]struct{}) Formatted {
	if p.cfg.SuggestOnly {
		return p.formatSuggestion(candidates, shown)
	}

	opts := FormatOptions{
		MaxResults: p.cfg.MaxResults,
		ForkLead:   p.cfg.ForkLead,
	}
	if p.cfg.FetchContent {
		opts.Fetch = func(location string) string {
			return p.searcher.Fetch(ctx, location, p.fetchMax)
		}
	}
	return FormatContext(candidates, shown, opts)
}

func (p *Pipeline) formatSuggestion(candidates []Candidate, shown map[string]struct{}) Formatted {
	for _, c := range candidates {
		if c.DisplayTitle() == "" || c.Location() == "" {
			continue
		}
		if _, ok := shown[c.Identifier()]; ok {
			continue
		}
		return Formatted{
			AssistantContext: FormatSuggestion(c),
			NewIDs:           []string{c.Identifier()},
		}
	}
	return Formatted{}
}

func (p *Pipeline) buildOutput(f Formatted) *v1.Output {
	out := &v1.Output{SystemMessage: f.UserMessage}
	if p.cfg.EventName != "" {
		out.HookSpecific = &v1.HookSpecificOutput{
			HookEventName:     p.cfg.EventName,
			AdditionalContext: f.AssistantContext,
		}
	} else {
		out.AdditionalContext = f.AssistantContext
	}
	return out
}

// filterSelfSession removes candidates whose location references the
// current session, avoiding self-referential matches.
func filterSelfSession(candidates []Candidate, sessionID string) []Candidate {
	if sessionID == "" || sessionID == UnknownSession {
		return candidates
	}

	var out []Candidate
	for _, c := range candidates {
		if strings.Contains(c.Location(), sessionID) {
			continue
		}
		out = append(out, c)
	}
	return out
}
