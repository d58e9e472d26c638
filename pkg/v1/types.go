package v1

import "encoding/json"

// Event is the structured payload the host session writes to a hook's stdin.
// Fields not relevant to a given hook event are simply absent.
type Event struct {
	SessionID      string          `json:"session_id,omitempty"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	CWD            string          `json:"cwd,omitempty"`
	HookEventName  string          `json:"hook_event_name,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
}

// ToolInputFields holds the subset of tool_input the hooks inspect.
type ToolInputFields struct {
	Command  string `json:"command,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Output is the structured payload a hook prints to stdout when it has
// something to contribute. A hook with nothing to say prints nothing.
type Output struct {
	SystemMessage     string              `json:"systemMessage,omitempty"`
	AdditionalContext string              `json:"additionalContext,omitempty"`
	HookSpecific      *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// HookSpecificOutput carries context scoped to a named hook event.
type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}
