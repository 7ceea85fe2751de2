// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes tasksort tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tasksort/internal/blocks"
	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/noteservice"
)

// Server wraps the MCP server with tasksort tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tasksort tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"tasksort",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed notes, optionally only those with a tag."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_blocks",
		mcp.WithDescription("Split a note into blocks: runs of lines separated by headings, "+
			"separators and blank lines."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.getBlocks)

	s.mcp.AddTool(mcp.NewTool("get_block_at",
		mcp.WithDescription("Return the block that contains a given line of a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Zero-based line index")),
		mcp.WithBoolean("from_start", mcp.Description("Start from the beginning of the enclosing section")),
		mcp.WithBoolean("tight", mcp.Description("Stop at the first blank line or separator")),
	), s.getBlockAt)

	s.mcp.AddTool(mcp.NewTool("sort_tasks",
		mcp.WithDescription("Resort the tasks of a note in place: open tasks first, then scheduled, "+
			"done and cancelled, each group ordered by the given fields. Read get_task_syntax first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("fields", mcp.Description("Comma-separated sort fields, '-' for descending (e.g. -priority,content)")),
		mcp.WithString("types", mcp.Description("Comma-separated task types to move (default all)")),
		mcp.WithBoolean("include_heading", mcp.Description("Write a heading above each group")),
		mcp.WithBoolean("subheadings", mcp.Description("Write a subheading whenever the first sort field changes")),
		mcp.WithBoolean("separator", mcp.Description("Write a --- line after each group")),
		mcp.WithBoolean("backup", mcp.Description("Copy the moved tasks into the backup note first")),
	), s.sortTasks)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("Query tasks across the vault."),
		mcp.WithString("path", mcp.Description("Only tasks of this note")),
		mcp.WithString("type", mcp.Description("open, scheduled, done or cancelled")),
		mcp.WithString("hashtag", mcp.Description("Tasks carrying this #hashtag")),
		mcp.WithString("mention", mcp.Description("Tasks carrying this @mention")),
		mcp.WithString("query", mcp.Description("Match on task content")),
		mcp.WithString("sort", mcp.Description("Comma-separated sort fields")),
		mcp.WithNumber("limit", mcp.Description("Max results")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("get_task_syntax",
		mcp.WithDescription("Returns how tasks, priorities, hashtags and mentions are written, "+
			"and which fields sort_tasks accepts."),
	), s.getTaskSyntax)

	s.mcp.AddResource(
		mcp.NewResource(taskSyntaxURI, "Task Syntax",
			mcp.WithResourceDescription("Markdown task syntax understood by tasksort."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaskSyntaxResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// optBool distinguishes an absent argument from an explicit false.
func optBool(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListNotes(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.Path
		if it.Title != "" {
			lines[i] += "\t" + it.Title
		}
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bs, err := s.svc.Blocks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("blocks %s: %v", path, err)), nil
	}
	var b strings.Builder
	for i, blk := range bs {
		if i > 0 {
			b.WriteString("\n")
		}
		writeBlock(&b, blk)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getBlockAt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blk, err := s.svc.BlockAt(ctx, path, line, blocks.AroundOptions{
		FromStartOfSection: req.GetBool("from_start", false),
		Tight:              req.GetBool("tight", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	writeBlock(&b, blk)
	return mcp.NewToolResultText(b.String()), nil
}

// writeBlock prints a block as "line: raw" rows under a span header.
func writeBlock(b *strings.Builder, blk blocks.Block) {
	if len(blk) == 0 {
		return
	}
	fmt.Fprintf(b, "# lines %d-%d\n", blk[0].LineIndex, blk[len(blk)-1].LineIndex)
	for _, p := range blk {
		fmt.Fprintf(b, "%d: %s\n", p.LineIndex, p.RawContent)
	}
}

func (s *Server) sortTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sr := noteservice.SortRequest{
		Fields:         splitList(req.GetString("fields", "")),
		IncludeHeading: optBool(req, "include_heading"),
		Subheadings:    optBool(req, "subheadings"),
		Separator:      optBool(req, "separator"),
		Backup:         optBool(req, "backup"),
	}
	for _, t := range splitList(req.GetString("types", "")) {
		sr.Types = append(sr.Types, models.ParagraphType(t))
	}

	res, err := s.svc.SortTasks(ctx, path, sr, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sort %s: %v", path, err)), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := index.TaskFilter{
		Path:    req.GetString("path", ""),
		Type:    models.ParagraphType(req.GetString("type", "")),
		Hashtag: req.GetString("hashtag", ""),
		Mention: req.GetString("mention", ""),
		Query:   req.GetString("query", ""),
		Sort:    splitList(req.GetString("sort", "")),
		Limit:   req.GetInt("limit", 100),
	}
	if f.Type != "" && !f.Type.IsTask() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown task type %q", f.Type)), nil
	}
	rows, err := s.svc.ListTasks(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no tasks found"), nil
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%s:%d\t%s", r.Path, r.Line, r.Raw)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getTaskSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskSyntax), nil
}

func (s *Server) readTaskSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      taskSyntaxURI,
			MIMEType: "text/markdown",
			Text:     TaskSyntax,
		},
	}, nil
}
