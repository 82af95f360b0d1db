// Package session provides a fluent builder for capturing an agent
// session as an engram. The builder accumulates transcript, operations,
// intent, and token usage, then produces a complete record on Build.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/engram/internal/engram"
)

// Creator is the storage capability Commit needs.
type Creator interface {
	Create(rec *engram.Record) (engram.ID, error)
}

// Session accumulates a single agent session. Methods return the session
// so calls chain; none of them fail, all validation happens at Build.
type Session struct {
	agent         engram.AgentInfo
	transcript    engram.Transcript
	toolCalls     []engram.ToolCall
	fileChanges   []engram.FileChange
	shellCommands []engram.ShellCommand
	deadEnds      []engram.DeadEnd
	decisions     []engram.Decision
	tokens        engram.TokenUsage
	original      *string
	summary       *string
	tags          []string
	parent        *engram.ID

	startedAt time.Time
	now       func() time.Time
}

// Begin starts a session for the named agent. model may be empty.
func Begin(agentName, model string) *Session {
	agent := engram.AgentInfo{Name: agentName}
	if model != "" {
		agent.Model = &model
	}
	now := func() time.Time { return time.Now().UTC() }
	return &Session{
		agent:     agent,
		startedAt: now(),
		now:       now,
	}
}

// LogMessage appends a text message to the transcript. The first user
// message becomes the session's original request.
func (s *Session) LogMessage(role, content string) *Session {
	if role == engram.RoleUser && s.original == nil {
		s.original = &content
	}
	s.transcript = append(s.transcript, engram.TranscriptEntry{
		Timestamp: s.now(),
		Role:      role,
		Content:   engram.TextContent(content),
	})
	return s
}

// LogToolCall records a tool invocation. A string input that parses as
// JSON is stored structured; anything else is stored as given.
func (s *Session) LogToolCall(toolName string, input any, outputSummary string) *Session {
	if raw, ok := input.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			input = parsed
		}
	}
	call := engram.ToolCall{
		Timestamp: s.now(),
		ToolName:  toolName,
		Input:     input,
	}
	if outputSummary != "" {
		call.OutputSummary = &outputSummary
	}
	s.toolCalls = append(s.toolCalls, call)
	return s
}

// changeKinds maps the loose change-type vocabulary capture surfaces emit
// onto the three scalar variants. Unknown words fall back to modified.
var changeKinds = map[string]engram.ChangeType{
	"created":  engram.ChangeCreated(),
	"create":   engram.ChangeCreated(),
	"new":      engram.ChangeCreated(),
	"modified": engram.ChangeModified(),
	"modify":   engram.ChangeModified(),
	"changed":  engram.ChangeModified(),
	"deleted":  engram.ChangeDeleted(),
	"delete":   engram.ChangeDeleted(),
	"removed":  engram.ChangeDeleted(),
}

// LogFileChange records a created, modified, or deleted file.
func (s *Session) LogFileChange(path, changeType string) *Session {
	ct, ok := changeKinds[strings.ToLower(changeType)]
	if !ok {
		ct = engram.ChangeModified()
	}
	s.fileChanges = append(s.fileChanges, engram.FileChange{Path: path, ChangeType: ct})
	return s
}

// LogFileRename records a rename from one path to another.
func (s *Session) LogFileRename(from, to string) *Session {
	s.fileChanges = append(s.fileChanges, engram.FileChange{
		Path:       to,
		ChangeType: engram.ChangeRenamed(from),
	})
	return s
}

// LogShellCommand records a shell execution. Pass nil for an unknown
// exit code or duration.
func (s *Session) LogShellCommand(command string, exitCode *int, durationMS *int64) *Session {
	s.shellCommands = append(s.shellCommands, engram.ShellCommand{
		Timestamp:  s.now(),
		Command:    command,
		ExitCode:   exitCode,
		DurationMS: durationMS,
	})
	return s
}

// LogRejection records an approach that was tried and abandoned.
func (s *Session) LogRejection(approach, reason string) *Session {
	s.deadEnds = append(s.deadEnds, engram.DeadEnd{Approach: approach, Reason: reason})
	return s
}

// LogDecision records a choice made during the session and its rationale.
func (s *Session) LogDecision(description, rationale string) *Session {
	s.decisions = append(s.decisions, engram.Decision{Description: description, Rationale: rationale})
	return s
}

// AddTokens accumulates token usage across calls. The running total is
// kept equal to accumulated input plus output.
func (s *Session) AddTokens(inputTokens, outputTokens int64) *Session {
	s.tokens.InputTokens += inputTokens
	s.tokens.OutputTokens += outputTokens
	s.tokens.TotalTokens += inputTokens + outputTokens
	return s
}

// AddCost accumulates the session's dollar cost.
func (s *Session) AddCost(usd float64) *Session {
	if s.tokens.CostUSD == nil {
		s.tokens.CostUSD = new(float64)
	}
	*s.tokens.CostUSD += usd
	return s
}

// SetSummary sets the session summary.
func (s *Session) SetSummary(summary string) *Session {
	s.summary = &summary
	return s
}

// Tag adds a tag.
func (s *Session) Tag(tag string) *Session {
	s.tags = append(s.tags, tag)
	return s
}

// Parent links this session to the engram it follows from.
func (s *Session) Parent(parentID engram.ID) *Session {
	s.parent = &parentID
	return s
}

// Build assembles the record without storing it. gitSHA and summary may
// be empty; the recorded summary falls back to the session summary, then
// the original request.
func (s *Session) Build(gitSHA, summary string) *engram.Record {
	id := engram.NewID()
	finishedAt := s.now()

	var finalSummary *string
	switch {
	case summary != "":
		finalSummary = &summary
	case s.summary != nil:
		finalSummary = s.summary
	case s.original != nil:
		finalSummary = s.original
	}

	gitCommits := []string{}
	if gitSHA != "" {
		gitCommits = append(gitCommits, gitSHA)
	}

	original := "SDK session"
	if s.original != nil {
		original = *s.original
	}

	return &engram.Record{
		Manifest: engram.Manifest{
			ID:          id,
			Version:     engram.FormatVersion,
			CreatedAt:   s.startedAt,
			FinishedAt:  &finishedAt,
			Agent:       s.agent,
			TokenUsage:  s.tokens,
			CaptureMode: engram.CaptureSDK,
			GitCommits:  gitCommits,
			Tags:        s.tags,
			Summary:     finalSummary,
		},
		Intent: engram.Intent{
			OriginalRequest: original,
			Summary:         finalSummary,
			DeadEnds:        s.deadEnds,
			Decisions:       s.decisions,
		},
		Transcript: s.transcript,
		Operations: engram.Operations{
			ToolCalls:     s.toolCalls,
			FileChanges:   s.fileChanges,
			ShellCommands: s.shellCommands,
		},
		Lineage: engram.Lineage{
			ParentEngram: s.parent,
			GitCommits:   gitCommits,
		},
	}
}

// Commit builds the record and stores it, returning the new engram's id.
func (s *Session) Commit(store Creator, gitSHA, summary string) (engram.ID, error) {
	return store.Create(s.Build(gitSHA, summary))
}
