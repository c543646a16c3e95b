package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/review"
	"github.com/dshills/glean/internal/source"
)

// Tool names as seen by agents.
const (
	ListPythonFilesName     = "ListPythonFiles"
	InferProgramPurposeName = "InferProgramPurpose"
	GenerateCommentsName    = "GenerateComments"
)

// ListTool lists the Python files under a directory.
type ListTool struct {
	opts source.Options
}

// NewListTool creates a ListTool using the given enumeration options.
func NewListTool(opts source.Options) *ListTool {
	return &ListTool{opts: opts}
}

// Definition returns the MCP tool definition.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool(ListPythonFilesName,
		mcp.WithDescription("Recursively list the Python files under a directory. "+
			"A file path yields just that file; a path that does not exist yields an empty list. "+
			"The result is a JSON array of paths."),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory to search, or a single file."),
		),
	)
}

// Handle processes the ListPythonFiles tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := source.ListPythonFiles(dir, t.opts)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("listing files", err), nil
	}
	data, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("listed python files", "directory", dir, "count", len(files))
	return mcp.NewToolResultText(string(data)), nil
}

// PurposeTool infers what a Python file does.
type PurposeTool struct {
	engine *review.Engine
	opts   review.Options
}

// NewPurposeTool creates a PurposeTool backed by engine.
func NewPurposeTool(engine *review.Engine, opts review.Options) *PurposeTool {
	return &PurposeTool{engine: engine, opts: opts}
}

// Definition returns the MCP tool definition.
func (t *PurposeTool) Definition() mcp.Tool {
	return mcp.NewTool(InferProgramPurposeName,
		mcp.WithDescription("Infer the purpose of a Python program by reading it piece by piece. "+
			"Returns a short natural-language description."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the Python file."),
		),
	)
}

// Handle processes the InferProgramPurpose tool call.
func (t *PurposeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	purpose, err := t.engine.InferProgramPurpose(ctx, path, t.opts)
	if err != nil {
		return toolError(ctx, InferProgramPurposeName, path, err), nil
	}
	return mcp.NewToolResultText(purpose), nil
}

// CommentsTool reviews a Python file for errors and convention violations.
type CommentsTool struct {
	engine *review.Engine
	opts   review.Options
}

// NewCommentsTool creates a CommentsTool backed by engine.
func NewCommentsTool(engine *review.Engine, opts review.Options) *CommentsTool {
	return &CommentsTool{engine: engine, opts: opts}
}

// Definition returns the MCP tool definition.
func (t *CommentsTool) Definition() mcp.Tool {
	return mcp.NewTool(GenerateCommentsName,
		mcp.WithDescription("Review a Python file given its purpose. Reports errors first; "+
			"only when none are found is the file checked against the coding conventions. "+
			"Returns \""+review.Sentinel+"\" when there is nothing to report."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the Python file."),
		),
		mcp.WithString("purpose",
			mcp.Description("What the program does, usually the result of "+InferProgramPurposeName+"."),
		),
	)
}

// Handle processes the GenerateComments tool call.
func (t *CommentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	purpose := req.GetString("purpose", "")

	comments, err := t.engine.GenerateComments(ctx, path, purpose, t.opts)
	if err != nil {
		return toolError(ctx, GenerateCommentsName, path, err), nil
	}
	return mcp.NewToolResultText(comments), nil
}

// toolError reports a failed operation to the agent. Cancellation is
// reported as such so the agent does not retry blindly.
func toolError(ctx context.Context, tool, path string, err error) *mcp.CallToolResult {
	logging.FromContext(ctx).Warn("tool call failed", "tool", tool, "path", path, "error", err)
	if errors.Is(err, context.Canceled) {
		return mcp.NewToolResultError("request cancelled")
	}
	return mcp.NewToolResultErrorFromErr(tool+" failed", err)
}
