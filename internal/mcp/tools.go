package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var logToolDef = mcp.NewTool("engram_log",
	mcp.WithDescription("List stored engrams, newest first. Each entry is a manifest with agent, timestamps, token usage, and summary."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default: all)"),
	),
	mcp.WithString("agent",
		mcp.Description("Only include engrams whose agent name contains this substring"),
	),
)

var showToolDef = mcp.NewTool("engram_show",
	mcp.WithDescription("Load one engram in full: manifest, intent narrative, transcript, operations, and lineage. Accepts a full 32-character id or an unambiguous prefix."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Engram id or unique prefix (at least 2 characters)"),
	),
)

var searchToolDef = mcp.NewTool("engram_search",
	mcp.WithDescription("Full-text search over stored engrams, ranked by relevance. Matches summaries, intent narratives, transcripts, and tags."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search terms; matched literally, not as query syntax"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results (default: 20, max: 100)"),
	),
)

var deleteToolDef = mcp.NewTool("engram_delete",
	mcp.WithDescription("Delete an engram's reference. The record's objects remain until git gc. Accepts a full id or an unambiguous prefix."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Engram id or unique prefix (at least 2 characters)"),
	),
)
