package internal

import (
	"fmt"
	"strings"
)

const (
	// maxDisplayTitle caps titles in the human-facing rendering.
	maxDisplayTitle = 50

	// maxSnippetChars caps per-candidate excerpts in context blocks.
	maxSnippetChars = 200
)

// FormatOptions selects between the driver renderings.
type FormatOptions struct {
	// MaxResults bounds how many candidates are surfaced.
	MaxResults int

	// ForkLead gives the best candidate the rich treatment: a user-facing
	// fork suggestion plus a dedicated assistant-facing block.
	ForkLead bool

	// Fetch, when set with ForkLead, retrieves full content for the best
	// candidate's location. Empty result degrades to the short rendering.
	Fetch func(location string) string
}

// Formatted is the outcome of formatting a candidate list.
type Formatted struct {
	// UserMessage is the short human-facing suggestion, possibly empty.
	UserMessage string

	// AssistantContext is the richer machine-facing context block.
	AssistantContext string

	// NewIDs are the identifiers surfaced by this rendering, in order.
	NewIDs []string
}

// FormatContext renders a ranked candidate list, skipping anything already
// in shown and anything lacking both title and location. When nothing
// survives the filter, all outputs are empty: callers treat that as
// "nothing to show", not an error.
func FormatContext(candidates []Candidate, shown map[string]struct{}, opts FormatOptions) Formatted {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}

	var fresh []Candidate
	for _, c := range candidates {
		if c.Title == "" && c.Location() == "" {
			continue
		}
		if _, ok := shown[c.Identifier()]; ok {
			continue
		}
		fresh = append(fresh, c)
		if len(fresh) >= opts.MaxResults {
			break
		}
	}
	if len(fresh) == 0 {
		return Formatted{}
	}

	// The fork treatment needs a location to derive a session id from.
	if opts.ForkLead && fresh[0].Location() != "" {
		return formatForkLead(fresh, opts)
	}
	return formatSnippets(fresh)
}

// formatForkLead renders the combined prompt-time output: a fork
// suggestion for the best match plus snippets for the rest.
func formatForkLead(fresh []Candidate, opts FormatOptions) Formatted {
	var out Formatted
	var context []string

	first := fresh[0]
	title := first.DisplayTitle()
	location := first.Location()
	sessionID := SessionIDFromLocation(location)

	out.UserMessage = fmt.Sprintf("🔍 Related: %q\n  claude --resume %s --fork-session",
		truncate(title, maxDisplayTitle), sessionID)

	var content string
	if opts.Fetch != nil {
		content = opts.Fetch(location)
	}
	if content != "" {
		context = append(context, fmt.Sprintf(`📖 MOST RELEVANT PAST SESSION:
%q
Session ID: %s
To fork: claude --resume %s --fork-session

--- SESSION CONTENT ---
%s
--- END SESSION ---`, title, sessionID, sessionID, content))
	} else {
		context = append(context, fmt.Sprintf(`SIMILAR PAST SESSION FOUND:
%q
Session ID: %s
To fork: claude --resume %s --fork-session`, title, sessionID, sessionID))
	}
	out.NewIDs = append(out.NewIDs, first.Identifier())

	if len(fresh) > 1 {
		context = append(context, "\n📚 OTHER RELEVANT SESSIONS (snippets):")
		for _, c := range fresh[1:] {
			context = append(context, "\n• "+c.DisplayTitle())
			if loc := c.Location(); loc != "" {
				context = append(context, "  File: "+loc)
			}
			if snippet := cleanSnippet(c.Snippet); snippet != "" {
				context = append(context, "  "+snippet+"...")
			}
			out.NewIDs = append(out.NewIDs, c.Identifier())
		}
	}

	out.AssistantContext = strings.Join(context, "\n")
	return out
}

// formatSnippets renders the pre-tool-use output: a flat snippet list with
// no user-facing message.
func formatSnippets(fresh []Candidate) Formatted {
	var out Formatted
	lines := []string{"📚 RELEVANT PAST SESSIONS:"}

	for _, c := range fresh {
		lines = append(lines, "\n• "+c.DisplayTitle())
		snippet := c.Snippet
		if snippet == "" {
			snippet = c.Content
		}
		if s := cleanSnippet(snippet); s != "" {
			lines = append(lines, "  "+s+"...")
		}
		out.NewIDs = append(out.NewIDs, c.Identifier())
	}

	lines = append(lines, "\n\nTo fork a session, run: claude --resume <session-id> --fork-session")
	out.AssistantContext = strings.Join(lines, "\n")
	return out
}

// FormatSuggestion renders the standalone prompt-time fork suggestion for
// a single best match.
func FormatSuggestion(c Candidate) string {
	sessionID := SessionIDFromLocation(c.Location())
	return fmt.Sprintf(`🔍 SIMILAR PAST SESSION FOUND:

%q

To fork and continue from this session, run in a NEW terminal:

  claude --resume %s --fork-session

(Cannot fork mid-session - must start fresh with the fork flag)`, c.DisplayTitle(), sessionID)
}

// truncate caps s at max runes so multi-byte text is never split.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func cleanSnippet(s string) string {
	if runes := []rune(s); len(runes) > maxSnippetChars {
		s = string(runes[:maxSnippetChars])
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
