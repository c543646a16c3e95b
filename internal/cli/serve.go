package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/review"
	"github.com/dshills/glean/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the glean tools to an agent over MCP on stdio",
	Long: "Run an MCP server on stdin and stdout exposing ListPythonFiles, InferProgramPurpose " +
		"and GenerateComments. Logs go to stderr.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, rec, err := buildEngine(cfg)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		defer writeMetrics(cmd, rec)

		s := tools.NewServer(engine, review.OptionsFromConfig(cfg), Version)
		logging.FromContext(ctx).Info("starting mcp server", "provider", cfg.Provider, "model", cfg.Model)
		if err := tools.Serve(ctx, s, os.Stdin, cmd.OutOrStdout()); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}
