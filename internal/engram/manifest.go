// Package engram defines the entity model for stored reasoning traces and
// the canonical encodings all SDKs must agree on byte-for-byte: manifest,
// operations, and lineage as indented JSON with stable key order, the intent
// narrative as heading-delimited Markdown, and the transcript as JSONL.
package engram

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatVersion is the current manifest format version.
const FormatVersion = 1

// CaptureMode indicates how an engram was captured.
type CaptureMode string

const (
	CaptureWrapper CaptureMode = "wrapper"
	CaptureImport  CaptureMode = "import"
	CaptureSDK     CaptureMode = "sdk"
)

// legacyCaptureModes maps capitalized tokens written by early SDKs to their
// canonical lowercase forms. Consulted before the canonical parse so the
// accepted historical surface stays bounded and auditable.
var legacyCaptureModes = map[string]CaptureMode{
	"Wrapper": CaptureWrapper,
	"Import":  CaptureImport,
	"Sdk":     CaptureSDK,
}

// UnmarshalJSON accepts canonical lowercase tokens plus the legacy aliases.
func (m *CaptureMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch CaptureMode(s) {
	case CaptureWrapper, CaptureImport, CaptureSDK:
		*m = CaptureMode(s)
		return nil
	}
	if canonical, ok := legacyCaptureModes[s]; ok {
		*m = canonical
		return nil
	}
	return fmt.Errorf("unknown capture mode %q", s)
}

// AgentInfo describes the agent that produced an engram.
type AgentInfo struct {
	Name    string  `json:"name"`
	Model   *string `json:"model,omitempty"`
	Version *string `json:"version,omitempty"`
}

// TokenUsage holds token counters for a session. TotalTokens is
// caller-supplied and not validated against InputTokens+OutputTokens; the
// session builder keeps them consistent, the format does not enforce it.
type TokenUsage struct {
	InputTokens      int64    `json:"input_tokens"`
	OutputTokens     int64    `json:"output_tokens"`
	CacheReadTokens  int64    `json:"cache_read_tokens"`
	CacheWriteTokens int64    `json:"cache_write_tokens"`
	TotalTokens      int64    `json:"total_tokens"`
	CostUSD          *float64 `json:"cost_usd,omitempty"`
}

// Manifest is the compact metadata stored as manifest.json in the engram
// tree. ID is immutable after creation.
type Manifest struct {
	ID          ID          `json:"id"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	Agent       AgentInfo   `json:"agent"`
	TokenUsage  TokenUsage  `json:"token_usage"`
	CaptureMode CaptureMode `json:"capture_mode"`
	GitCommits  []string    `json:"git_commits"`
	Tags        []string    `json:"tags,omitempty"`
	Summary     *string     `json:"summary,omitempty"`
}

// Encode serializes the manifest as indented JSON with stable key order.
func (m Manifest) Encode() ([]byte, error) {
	// git_commits is always present on the wire, even when empty
	if m.GitCommits == nil {
		m.GitCommits = []string{}
	}
	return json.MarshalIndent(m, "", "  ")
}

// DecodeManifest parses manifest bytes. Absent counters decode to zero,
// absent sequences to empty, absent optionals stay nil.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
