package tools

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/review"
)

// ServerName is the implementation name announced during initialization.
const ServerName = "glean"

const instructions = `glean reviews Python source files.

Call ListPythonFiles with a directory to discover files. For each file, call
InferProgramPurpose first, then pass its result as the purpose argument of
GenerateComments. GenerateComments replies "LGTM" when it has nothing to
report.`

// NewServer creates an MCP server with the list, purpose and comments tools
// registered against engine.
func NewServer(engine *review.Engine, opts review.Options, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	list := NewListTool(opts.Source)
	s.AddTool(list.Definition(), list.Handle)

	purpose := NewPurposeTool(engine, opts)
	s.AddTool(purpose.Definition(), purpose.Handle)

	comments := NewCommentsTool(engine, opts)
	s.AddTool(comments.Definition(), comments.Handle)

	return s
}

// Serve runs s over in and out until ctx is cancelled or in is closed.
// Transport errors are logged through the context logger.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	logger := logging.FromContext(ctx)
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(&logWriter{ctx: ctx}, "", 0))
	stdio.SetContextFunc(func(c context.Context) context.Context {
		return logging.WithLogger(c, logger)
	})

	logger.Info("mcp server listening on stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return err
}

// logWriter adapts the stdio server's *log.Logger to slog.
type logWriter struct {
	ctx context.Context
}

func (w *logWriter) Write(p []byte) (int, error) {
	logging.FromContext(w.ctx).Warn("mcp transport", "message", string(trimNewline(p)))
	return len(p), nil
}

func trimNewline(p []byte) []byte {
	for len(p) > 0 && (p[len(p)-1] == '\n' || p[len(p)-1] == '\r') {
		p = p[:len(p)-1]
	}
	return p
}
