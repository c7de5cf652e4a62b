// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/search"
)

// Server wraps the MCP server with the Ansuz vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all vault tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes_directory",
		mcp.WithDescription("List files and directories in a vault directory. "+
			"When recursive=true, only .md files from subdirectories are returned."),
		mcp.WithString("path", mcp.Description("Directory path relative to vault root (default: '.' for root)")),
		mcp.WithNumber("limit", mcp.Description("Maximum items to return (default: 50)")),
		mcp.WithNumber("offset", mcp.Description("Pagination offset (default: 0)")),
		mcp.WithBoolean("recursive", mcp.Description("Recurse into subdirectories, returning only .md files")),
	), s.listNotesDirectory)

	s.mcp.AddTool(mcp.NewTool("read_notes_file",
		mcp.WithDescription("Read a Markdown note. Returns the body and the frontmatter separately. "+
			"The .md extension is added when missing."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note relative to vault root")),
	), s.readNotesFile)

	s.mcp.AddTool(mcp.NewTool("create_or_update_note",
		mcp.WithDescription("Create a note or update an existing one. Mode 'overwrite' (default) replaces "+
			"the file; 'append'/'prepend' splice content around the existing body and merge the supplied "+
			"frontmatter into the existing one (existing keys keep their position). Content MUST follow the "+
			"canonical note format; read it via the get_note_contract tool first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path for the note relative to vault root (.md auto-added)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body (without frontmatter)")),
		mcp.WithObject("frontmatter", mcp.Description("YAML frontmatter properties to set or merge")),
		mcp.WithString("mode", mcp.Description("overwrite (default), append, or prepend")),
	), s.createOrUpdateNote)

	s.mcp.AddTool(mcp.NewTool("delete_notes_item",
		mcp.WithDescription("Delete a note (.md auto-added) or a directory (recursively)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to vault root")),
	), s.deleteNotesItem)

	s.mcp.AddTool(mcp.NewTool("get_daily_note",
		mcp.WithDescription("Get the daily note for a date. Searches the configured daily notes directory, "+
			"the vault root, daily/, and 'Daily Notes/'."),
		mcp.WithString("date", mcp.Description("'today' (default), 'yesterday', 'tomorrow', or YYYY-MM-DD")),
	), s.getDailyNote)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Search notes for literal text (case-sensitive substring). Scope options: "+
			"'content' (body), 'filename' (paths), 'tags' (frontmatter tags). Default: content and filename."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Literal text to find")),
		mcp.WithArray("scope", mcp.Description("Scopes to search: content, filename, tags")),
		mcp.WithString("path_filter", mcp.Description("Limit search to a subdirectory (path prefix)")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("find_related_notes",
		mcp.WithDescription("Find notes related to a source note via shared frontmatter tags and/or "+
			"wikilink targets. 'on' selects the criteria: tags, links (default both)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the source note (.md auto-added)")),
		mcp.WithArray("on", mcp.Description("Relationship criteria: tags, links")),
	), s.findRelatedNotes)

	s.mcp.AddTool(mcp.NewTool("replace_text_in_note",
		mcp.WithDescription("Replace literal text in a note body. replace_all (default true) replaces every "+
			"occurrence; otherwise only the first. \\n in the replacement becomes a newline. "+
			"Fails when the target text is not found."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note (.md auto-added)")),
		mcp.WithString("find", mcp.Required(), mcp.Description("Literal text to find")),
		mcp.WithString("replace", mcp.Required(), mcp.Description("Replacement text")),
		mcp.WithBoolean("replace_all", mcp.Description("Replace all occurrences (default true)")),
	), s.replaceTextInNote)

	s.mcp.AddTool(mcp.NewTool("insert_text_in_note",
		mcp.WithDescription("Insert text before or after a literal anchor in a note body. "+
			"Fails when the anchor is not found."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note (.md auto-added)")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Literal anchor text")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to insert (\\n becomes a newline)")),
		mcp.WithString("position", mcp.Description("'after' (default) or 'before'")),
		mcp.WithBoolean("newline_before", mcp.Description("Separate anchor and content with a newline (default true)")),
	), s.insertTextInNote)

	s.mcp.AddTool(mcp.NewTool("append_to_section",
		mcp.WithDescription("Append text to a Markdown section. section_header must include # markers "+
			"(e.g. '## End day') and match exactly one section (level and text). Fails when the level is "+
			"missing, the section is absent, the text exists at another level, or several sections match."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note (.md auto-added)")),
		mcp.WithString("section_header", mcp.Required(), mcp.Description("Header with # markers, e.g. '## End day'")),
		mcp.WithString("text_to_append", mcp.Required(), mcp.Description("Text to append (\\n becomes a newline)")),
	), s.appendToSection)

	s.mcp.AddTool(mcp.NewTool("get_note_properties",
		mcp.WithDescription("Read a note's frontmatter properties in file order."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note (.md auto-added)")),
	), s.getNoteProperties)

	s.mcp.AddTool(mcp.NewTool("update_note_properties",
		mcp.WithDescription("Update frontmatter properties without touching the body. Existing keys are "+
			"overwritten in place, new keys appended, and keys in 'remove' dropped. "+
			"Frontmatter is created when the note has none."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the note (.md auto-added)")),
		mcp.WithObject("properties", mcp.Description("Properties to set")),
		mcp.WithArray("remove", mcp.Description("Property keys to remove")),
	), s.updateNoteProperties)

	s.mcp.AddTool(mcp.NewTool("create_note_from_template",
		mcp.WithDescription("Create a note from a template, substituting {{variable}} placeholders and "+
			"{{date:FORMAT}} expressions. Template paths from list_notes_templates can be used directly; "+
			"a path starting with '/' is resolved against the vault root."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Destination path for the new note")),
		mcp.WithString("template_path", mcp.Required(), mcp.Description("Template to render")),
		mcp.WithObject("variables", mcp.Description("Values for {{variable}} placeholders")),
	), s.createNoteFromTemplate)

	s.mcp.AddTool(mcp.NewTool("list_notes_templates",
		mcp.WithDescription("List .md templates in the templates directory. Returned paths are relative to "+
			"that directory and feed straight into create_note_from_template."),
	), s.listNotesTemplates)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. Call this before creating or "+
			"updating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

// --- argument helpers -------------------------------------------------

func argString(req mcp.CallToolRequest, key, def string) string {
	if v, ok := req.GetArguments()[key].(string); ok {
		return v
	}
	return def
}

func argBool(req mcp.CallToolRequest, key string, def bool) bool {
	if v, ok := req.GetArguments()[key].(bool); ok {
		return v
	}
	return def
}

func argInt(req mcp.CallToolRequest, key string, def int) int {
	if v, ok := req.GetArguments()[key].(float64); ok {
		return int(v)
	}
	return def
}

func argStringSlice(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argMap(req mcp.CallToolRequest, key string) map[string]any {
	if v, ok := req.GetArguments()[key].(map[string]any); ok {
		return v
	}
	return nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// --- tool handlers ----------------------------------------------------

func (s *Server) listNotesDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := argString(req, "path", ".")
	items, err := s.svc.ListDirectory(ctx, dir,
		argBool(req, "recursive", false),
		argInt(req, "limit", 50),
		argInt(req, "offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) readNotesFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createOrUpdateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	props, err := frontmatter.FromGoMap(argMap(req, "frontmatter"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateOrUpdate(ctx, path, content, props, argString(req, "mode", ""), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s", note.Path)), nil
}

func (s *Server) deleteNotesItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deleted, err := s.svc.DeleteItem(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", deleted)), nil
}

func (s *Server) getDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := s.svc.DailyNote(ctx, argString(req, "date", "today"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, search.Query{
		Text:       query,
		Scope:      search.ParseScope(argStringSlice(req, "scope")),
		PathFilter: argString(req, "path_filter", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) findRelatedNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.FindRelated(ctx, path, argStringSlice(req, "on"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) replaceTextInNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	find, err := req.RequireString("find")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	replace, err := req.RequireString("replace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReplaceText(ctx, path, find, replace, argBool(req, "replace_all", true))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("replaced in: %s", note.Path)), nil
}

func (s *Server) insertTextInNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.InsertText(ctx, path, target, content,
		argString(req, "position", "after"),
		argBool(req, "newline_before", true))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("inserted in: %s", note.Path)), nil
}

func (s *Server) appendToSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	header, err := req.RequireString("section_header")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text_to_append")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.AppendToSection(ctx, path, header, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended to section in: %s", note.Path)), nil
}

func (s *Server) getNoteProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	props, err := s.svc.Properties(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(props), nil
}

func (s *Server) updateNoteProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updates, err := frontmatter.FromGoMap(argMap(req, "properties"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.UpdateProperties(ctx, path, updates, argStringSlice(req, "remove"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("properties updated: %s", note.Path)), nil
}

func (s *Server) createNoteFromTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templatePath, err := req.RequireString("template_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vars := make(map[string]string)
	for k, v := range argMap(req, "variables") {
		if s, ok := v.(string); ok {
			vars[k] = s
		}
	}
	note, err := s.svc.CreateFromTemplate(ctx, path, templatePath, vars)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.Path)), nil
}

func (s *Server) listNotesTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
