package engram

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations is the structured log of everything the agent did: tool
// calls, file changes, and shell commands, each in invocation order.
// Stored as operations.json in the engram tree.
type Operations struct {
	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`
	FileChanges   []FileChange   `json:"file_changes,omitempty"`
	ShellCommands []ShellCommand `json:"shell_commands,omitempty"`
}

// Encode serializes the operations log as indented JSON.
func (o Operations) Encode() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// DecodeOperations parses operations bytes.
func DecodeOperations(data []byte) (Operations, error) {
	var o Operations
	if err := json.Unmarshal(data, &o); err != nil {
		return Operations{}, err
	}
	return o, nil
}

// ToolCall records one tool invocation. Input is an opaque payload.
type ToolCall struct {
	Timestamp     time.Time `json:"timestamp"`
	ToolName      string    `json:"tool_name"`
	Input         any       `json:"input"`
	OutputSummary *string   `json:"output_summary,omitempty"`
	DurationMS    *int64    `json:"duration_ms,omitempty"`
	IsError       bool      `json:"is_error"`
}

// ShellCommand records one shell execution.
type ShellCommand struct {
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	DurationMS *int64    `json:"duration_ms,omitempty"`
}

// FileChange records one file operation.
type FileChange struct {
	Path         string     `json:"path"`
	ChangeType   ChangeType `json:"change_type"`
	LinesAdded   *int       `json:"lines_added,omitempty"`
	LinesRemoved *int       `json:"lines_removed,omitempty"`
}

// ChangeKind enumerates the file change variants.
type ChangeKind string

const (
	KindCreated  ChangeKind = "created"
	KindModified ChangeKind = "modified"
	KindDeleted  ChangeKind = "deleted"
	KindRenamed  ChangeKind = "renamed"
)

// ChangeType is a tagged variant: created, modified, and deleted carry no
// payload; renamed carries the previous path. The fields are unexported so
// a rename source can never be attached to a non-rename kind. On the wire
// the payload-free kinds are bare strings and renamed is the nested object
// {"renamed": {"from": <path>}}.
type ChangeType struct {
	kind ChangeKind
	from string
}

// ChangeCreated returns the created variant.
func ChangeCreated() ChangeType { return ChangeType{kind: KindCreated} }

// ChangeModified returns the modified variant.
func ChangeModified() ChangeType { return ChangeType{kind: KindModified} }

// ChangeDeleted returns the deleted variant.
func ChangeDeleted() ChangeType { return ChangeType{kind: KindDeleted} }

// ChangeRenamed returns the renamed variant carrying the previous path.
func ChangeRenamed(from string) ChangeType { return ChangeType{kind: KindRenamed, from: from} }

// Kind returns the variant tag.
func (c ChangeType) Kind() ChangeKind { return c.kind }

// RenameFrom returns the previous path and true when the kind is renamed.
func (c ChangeType) RenameFrom() (string, bool) {
	if c.kind == KindRenamed {
		return c.from, true
	}
	return "", false
}

// renamedPayload is the wire shape of the one payload-bearing variant.
type renamedPayload struct {
	Renamed struct {
		From string `json:"from"`
	} `json:"renamed"`
}

// MarshalJSON implements json.Marshaler.
func (c ChangeType) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindCreated, KindModified, KindDeleted:
		return json.Marshal(string(c.kind))
	case KindRenamed:
		var p renamedPayload
		p.Renamed.From = c.from
		return json.Marshal(p)
	}
	return nil, fmt.Errorf("unknown change kind %q", c.kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChangeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch ChangeKind(s) {
		case KindCreated, KindModified, KindDeleted:
			c.kind = ChangeKind(s)
			c.from = ""
			return nil
		}
		return fmt.Errorf("unknown change type %q", s)
	}

	var p renamedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid change type: %s", data)
	}
	if p.Renamed.From == "" {
		return fmt.Errorf("renamed change type missing from path")
	}
	c.kind = KindRenamed
	c.from = p.Renamed.From
	return nil
}
