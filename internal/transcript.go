package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

const (
	// MaxThinkingChars bounds the reasoning excerpt used as query input.
	MaxThinkingChars = 1500

	// transcriptTailLines is how far back we look for a thinking block.
	transcriptTailLines = 100

	// transcriptTailBytes bounds how much of a large transcript is read.
	transcriptTailBytes = 256 * 1024
)

// transcriptEntry models the subset of the transcript line format the
// pipeline cares about. The transcript is an append-only JSONL log owned
// by the host; we only ever read it.
type transcriptEntry struct {
	Type    string `json:"type"`
	Message struct {
		Content []struct {
			Type     string `json:"type"`
			Thinking string `json:"thinking"`
		} `json:"content"`
	} `json:"message"`
}

// LastThinking returns the most recent assistant thinking block from the
// transcript at path, truncated to MaxThinkingChars. Missing files,
// permission errors, and malformed lines all yield "".
func LastThinking(path string) string {
	lines := tailLines(path, transcriptTailLines)

	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}

		var entry transcriptEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "assistant" {
			continue
		}

		content := entry.Message.Content
		for j := len(content) - 1; j >= 0; j-- {
			if content[j].Type == "thinking" && content[j].Thinking != "" {
				thinking := content[j].Thinking
				if runes := []rune(thinking); len(runes) > MaxThinkingChars {
					thinking = string(runes[:MaxThinkingChars])
				}
				return thinking
			}
		}
	}

	return ""
}

// tailLines reads up to n trailing lines from path, scanning at most
// transcriptTailBytes from the end of the file.
func tailLines(path string, n int) [][]byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}

	offset := int64(0)
	if info.Size() > transcriptTailBytes {
		offset = info.Size() - transcriptTailBytes
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}

	lines := bytes.Split(data, []byte("\n"))
	if offset > 0 && len(lines) > 0 {
		// First line is likely cut mid-record by the seek.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
