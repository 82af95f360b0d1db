package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
	"github.com/hpungsan/engram/internal/index"
	"github.com/hpungsan/engram/internal/storage"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *storage.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *storage.Store) *Handlers {
	return &Handlers{store: store}
}

// Request types for each tool

// LogRequest represents the arguments for engram_log.
type LogRequest struct {
	Limit int    `json:"limit,omitempty"`
	Agent string `json:"agent,omitempty"`
}

// ShowRequest represents the arguments for engram_show.
type ShowRequest struct {
	ID string `json:"id"`
}

// SearchRequest represents the arguments for engram_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// DeleteRequest represents the arguments for engram_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ShowResponse is the engram_show payload. The intent travels as its
// rendered narrative, the same text stored in intent.md.
type ShowResponse struct {
	Manifest   engram.Manifest   `json:"manifest"`
	Intent     string            `json:"intent"`
	Transcript engram.Transcript `json:"transcript"`
	Operations engram.Operations `json:"operations"`
	Lineage    engram.Lineage    `json:"lineage"`
}

// Handler implementations

// HandleLog handles the engram_log tool call.
func (h *Handlers) HandleLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireInitialized(); err != nil {
		return errorResult(err), nil
	}

	manifests, err := h.store.List(storage.ListOptions{Limit: input.Limit, Agent: input.Agent})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"engrams": manifests,
		"count":   len(manifests),
	})
}

// HandleShow handles the engram_show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireInitialized(); err != nil {
		return errorResult(err), nil
	}

	rec, err := h.store.Read(input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ShowResponse{
		Manifest:   rec.Manifest,
		Intent:     rec.Intent.Render(),
		Transcript: rec.Transcript,
		Operations: rec.Operations,
		Lineage:    rec.Lineage,
	})
}

// HandleSearch handles the engram_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireInitialized(); err != nil {
		return errorResult(err), nil
	}

	ix, err := h.openIndex()
	if err != nil {
		return errorResult(err), nil
	}
	defer ix.Close()

	results, err := ix.Search(input.Query, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// HandleDelete handles the engram_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireInitialized(); err != nil {
		return errorResult(err), nil
	}

	id, err := h.store.Resolve(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	if err := h.store.Delete(id.String()); err != nil {
		return errorResult(err), nil
	}

	// best-effort: a stale index row only costs a dangling search hit
	if ix, err := h.openIndex(); err == nil {
		_ = ix.Remove(id)
		ix.Close()
	}

	return successResult(map[string]any{"deleted": id})
}

func (h *Handlers) requireInitialized() error {
	if !h.store.IsInitialized() {
		return errors.NewNotInitialized()
	}
	return nil
}

func (h *Handlers) openIndex() (*index.Index, error) {
	gitDir, err := h.store.GitDir()
	if err != nil {
		return nil, err
	}
	return index.Open(gitDir)
}

// errorResult builds an error result payload from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if engramErr, ok := err.(*errors.EngramError); ok {
		errorObj := map[string]any{
			"code":    engramErr.Code,
			"message": engramErr.Message,
			"status":  engramErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// paths or SQL errors
		if engramErr.Code != errors.ErrInternal && engramErr.Details != nil {
			errorObj["details"] = engramErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult builds a JSON result payload.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
