// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Quire notes as tools for LLM integration via stdio transport.
//
// Every tool runs as one configured user, with the same visibility and
// sharing rules as the HTTP API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quire/internal/access"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/notes"
)

// Server wraps the MCP server with Quire tools.
type Server struct {
	mcp    *server.MCPServer
	notes  *notes.Repository
	search *notes.Searcher
	actor  string
}

// New creates a new MCP server with all Quire tools registered. actor is
// the user id every tool call acts as.
func New(repo *notes.Repository, search *notes.Searcher, actor string) *Server {
	s := &Server{notes: repo, search: search, actor: actor}

	s.mcp = server.NewMCPServer(
		"Quire",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through the titles and content of notes you own or that are shared with you."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms; a note matches when any term matches")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 50, max 200)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every note you own or that is shared with you."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note owned by you."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-empty title")),
		mcp.WithString("content", mcp.Description("Note body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Change the title and/or content of a note you own or that is shared with you. "+
			"Pass the version you read to fail instead of overwriting a newer edit."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithNumber("version", mcp.Description("Expected current version")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note you own. On a note shared with you, this removes you from it instead."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("share_note",
		mcp.WithDescription("Give another user read and write access to a note you own."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Id of the user to share with")),
	), s.shareNote)

	s.mcp.AddTool(mcp.NewTool("unshare_note",
		mcp.WithDescription("Revoke a user's access. Owners may remove anyone; shared users only themselves."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Id of the user to remove")),
	), s.unshareNote)

	s.mcp.AddResource(
		mcp.NewResource(accessRulesURI, "Note Access Rules",
			mcp.WithResourceDescription("Who may read, edit, share and delete a note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAccessRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError converts a domain error into a tool error carrying only the
// public message.
func toolError(op string, err error) *mcp.CallToolResult {
	msg := apperr.MessageOf(err)
	if msg == "internal error" {
		slog.Error(op+" failed", slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.search.SearchN(ctx, s.actor, query, req.GetInt("limit", 0))
	if err != nil {
		return toolError("search_notes", err), nil
	}
	return jsonResult(results)
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.notes.ListVisible(ctx, s.actor)
	if err != nil {
		return toolError("list_notes", err), nil
	}
	return jsonResult(list)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.notes.Get(ctx, s.actor, id)
	if err != nil {
		return toolError("read_note", err), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.notes.Create(ctx, s.actor, title, req.GetString("content", ""))
	if err != nil {
		return toolError("create_note", err), nil
	}
	return jsonResult(n)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Everything except id and version is the change set, checked by the
	// same closed decoder the HTTP API uses.
	fields := make(map[string]any)
	for k, v := range req.GetArguments() {
		if k != "id" && k != "version" {
			fields[k] = v
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ch, err := notes.DecodeChanges(raw)
	if err != nil {
		return toolError("update_note", err), nil
	}

	n, err := s.notes.Update(ctx, s.actor, id, ch, int64(req.GetInt("version", 0)))
	if err != nil {
		return toolError("update_note", err), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.notes.Delete(ctx, s.actor, id)
	if err != nil {
		return toolError("delete_note", err), nil
	}
	if res.Outcome == access.DeleteNote {
		return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
	}
	return mcp.NewToolResultText(res.Message), nil
}

func (s *Server) shareNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.Share(ctx, s.actor, id, target); err != nil {
		return toolError("share_note", err), nil
	}
	return mcp.NewToolResultText("Note shared successfully"), nil
}

func (s *Server) unshareNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.Unshare(ctx, s.actor, id, target); err != nil {
		return toolError("unshare_note", err), nil
	}
	return mcp.NewToolResultText("Note unshared successfully"), nil
}
