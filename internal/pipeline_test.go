package internal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/4thel00z/recall/pkg/v1"
)

// newTestPipeline wires a pipeline against a fake backend script and a
// fresh dedup dir.
func newTestPipeline(t *testing.T, cfg PipelineConfig, script string) *Pipeline {
	t.Helper()
	searcher := NewSearcher(fakeBackend(t, script), "sessions", time.Second, nil)
	dedup := NewDedupStore(t.TempDir(), 0)
	return NewPipeline(cfg, searcher, dedup, nil, 75, nil)
}

const twoResultScript = `case "$1" in
search) cat <<'EOF'
[
  {"id": "a", "title": "Auth refactor", "file": "/sessions/sess-a.md", "snippet": "jwt middleware"},
  {"id": "b", "title": "Token cleanup", "file": "/sessions/sess-b.md", "snippet": "token expiry"}
]
EOF
;;
get) echo "full session body" ;;
status) echo "collections: sessions" ;;
esac`

func TestPipelinePromptFlow(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{
		EventName:  "UserPromptSubmit",
		MaxResults: 2,
		ForkLead:   true,
	}, twoResultScript)

	ev := &v1.Event{
		SessionID: "current-session",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	}

	out := p.Run(context.Background(), ev)
	require.NotNil(t, out)
	assert.Contains(t, out.SystemMessage, "Auth refactor")
	require.NotNil(t, out.HookSpecific)
	assert.Equal(t, "UserPromptSubmit", out.HookSpecific.HookEventName)
	assert.Contains(t, out.HookSpecific.AdditionalContext, "Token cleanup")
	assert.Empty(t, out.AdditionalContext)
}

func TestPipelineDedupAcrossRuns(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2}, twoResultScript)

	ev := &v1.Event{
		SessionID: "current-session",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	}

	require.NotNil(t, p.Run(context.Background(), ev))

	// Same candidates come back, but all of them have been shown.
	ev.Prompt = "another look at jwt token validation in middleware code"
	assert.Nil(t, p.Run(context.Background(), ev))
}

func TestPipelineShortPrompt(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2}, twoResultScript)

	out := p.Run(context.Background(), &v1.Event{SessionID: "s", Prompt: "fix bug"})
	assert.Nil(t, out)
}

func TestPipelineNilEvent(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2}, twoResultScript)
	assert.Nil(t, p.Run(context.Background(), nil))
}

func TestPipelineToolGate(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{
		MaxResults: 2,
		Tools:      []string{"Read", "Grep"},
	}, twoResultScript)

	ev := &v1.Event{
		SessionID: "s",
		ToolName:  "Bash",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	}
	assert.Nil(t, p.Run(context.Background(), ev))

	ev.ToolName = "Read"
	assert.NotNil(t, p.Run(context.Background(), ev))
}

func TestPipelineBackendUnavailable(t *testing.T) {
	searcher := NewSearcher("definitely-not-a-real-binary-xyz", "sessions", time.Second, nil)
	p := NewPipeline(PipelineConfig{MaxResults: 2}, searcher, NewDedupStore(t.TempDir(), 0), nil, 75, nil)

	out := p.Run(context.Background(), &v1.Event{
		SessionID: "s",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	})
	assert.Nil(t, out)
}

func TestPipelineRequireCollection(t *testing.T) {
	script := `case "$1" in
status) echo "collections: something-else" ;;
*) echo "[]" ;;
esac`
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2, RequireCollection: true}, script)

	out := p.Run(context.Background(), &v1.Event{
		SessionID: "s",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	})
	assert.Nil(t, out)
}

func TestPipelineQueryGate(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2, UseQueryGate: true}, twoResultScript)

	text := "fix the jwt token validation bug in the auth middleware"
	session := "gated-session"

	require.False(t, p.dedup.ShouldSkipQuery(session, "priming different text"))
	require.NotNil(t, p.Run(context.Background(), &v1.Event{SessionID: session, Prompt: text}))

	// The gate now remembers this exact text for the session.
	assert.True(t, p.dedup.ShouldSkipQuery(session, text))
}

func TestPipelineFilterSelf(t *testing.T) {
	script := `case "$1" in
search) cat <<'EOF'
[{"id": "me", "title": "This very session", "file": "/sessions/current-session.md"}]
EOF
;;
esac`
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2, FilterSelf: true}, script)

	out := p.Run(context.Background(), &v1.Event{
		SessionID: "current-session",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	})
	assert.Nil(t, out)
}

func TestPipelineSuggestOnly(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 1, SuggestOnly: true}, twoResultScript)

	out := p.Run(context.Background(), &v1.Event{
		SessionID: "s",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	})
	require.NotNil(t, out)
	assert.Contains(t, out.AdditionalContext, "SIMILAR PAST SESSION FOUND")
	assert.Contains(t, out.AdditionalContext, "claude --resume sess-a --fork-session")
	assert.Empty(t, out.SystemMessage)
}

func TestPipelineThinkingSource(t *testing.T) {
	transcript := writeTranscript(t,
		thinkingLine(t, "the user needs the jwt token validation fixed in middleware"),
	)
	p := newTestPipeline(t, PipelineConfig{MaxResults: 2, UseThinking: true}, twoResultScript)

	out := p.Run(context.Background(), &v1.Event{
		SessionID:      "s",
		TranscriptPath: transcript,
		ToolName:       "Read",
	})
	require.NotNil(t, out)
	assert.Contains(t, out.AdditionalContext, "Auth refactor")
}

func TestBuildQueryRawPrefixKeepsRunesIntact(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{MaxResults: 1}, twoResultScript)

	// Nothing extractable, so the raw prefix becomes the query.
	query := p.buildQuery(strings.Repeat("ü", 300))
	assert.Equal(t, strings.Repeat("ü", 200), query)
}

func TestPipelineFetchContent(t *testing.T) {
	p := newTestPipeline(t, PipelineConfig{
		MaxResults:   2,
		ForkLead:     true,
		FetchContent: true,
	}, twoResultScript)

	out := p.Run(context.Background(), &v1.Event{
		SessionID: "s",
		Prompt:    "fix the jwt token validation bug in the auth middleware",
	})
	require.NotNil(t, out)
	assert.Contains(t, out.AdditionalContext, "full session body")
}
