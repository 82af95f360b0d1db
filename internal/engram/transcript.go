package engram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Transcript roles. Role is stored as free text, not a closed enum; these
// are the values the capture surfaces write.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// TranscriptEntry is one line of transcript.jsonl. Content is an opaque
// structured payload carrying at minimum a "type" discriminator.
type TranscriptEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Role       string         `json:"role"`
	Content    map[string]any `json:"content"`
	TokenCount *int64         `json:"token_count,omitempty"`
}

// TextContent builds the plain-text content payload.
func TextContent(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// ThinkingContent builds the reasoning-text content payload.
func ThinkingContent(text string) map[string]any {
	return map[string]any{"type": "thinking", "text": text}
}

// ToolUseContent builds the tool-invocation content payload.
func ToolUseContent(toolName, toolID string, input any) map[string]any {
	return map[string]any{"type": "tool_use", "tool_name": toolName, "tool_id": toolID, "input": input}
}

// ToolResultContent builds the tool-result content payload.
func ToolResultContent(toolID, output string, isError bool) map[string]any {
	return map[string]any{"type": "tool_result", "tool_id": toolID, "output": output, "is_error": isError}
}

// Transcript is the ordered, append-only message sequence.
type Transcript []TranscriptEntry

// Encode serializes the transcript as JSONL: one compact JSON object per
// entry, newline-terminated. Zero entries encode to a zero-length buffer,
// not an empty-array literal.
func (t Transcript) Encode() ([]byte, error) {
	if len(t) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	for _, entry := range t {
		line, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// DecodeTranscript parses JSONL bytes. Blank lines are ignored.
func DecodeTranscript(data []byte) (Transcript, error) {
	var entries Transcript
	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry TranscriptEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
