package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/glean/internal/output"
	"github.com/dshills/glean/internal/review"
	"github.com/dshills/glean/internal/source"
)

var (
	flagPurpose        string
	flagFailOnComments bool
)

var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List the Python files under a directory",
	Long: "List the Python files under a directory, recursively. A file path lists just that file; " +
		"a path that does not exist lists nothing.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := review.OptionsFromConfig(cfg)
		files, err := source.ListPythonFiles(args[0], opts.Source)
		if err != nil {
			fail(cmd, err)
			return nil
		}

		var text string
		if cfg.Format == "json" {
			data, err := json.MarshalIndent(files, "", "  ")
			if err != nil {
				return err
			}
			text = string(data)
		} else {
			text = strings.Join(files, "\n")
		}
		if err := writeResult(cmd, text); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

// sizeLimitHelp documents the per-file read limit shared by the review commands.
var sizeLimitHelp = fmt.Sprintf(" Files larger than maxFileBytes (%d bytes, 1 MiB, by default; "+
	"see 'glean config set maxFileBytes') are rejected.", source.DefaultMaxFileBytes)

var purposeCmd = &cobra.Command{
	Use:   "purpose <path>",
	Short: "Infer what a Python file does",
	Long: "Infer what a Python file does by folding a running summary across its fragments." +
		sizeLimitHelp,
	Args: cobra.ExactArgs(1),
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

		purpose, err := engine.InferProgramPurpose(ctx, args[0], review.OptionsFromConfig(cfg))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if err := writeResult(cmd, purpose); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <path>",
	Short: "Review a Python file for errors and convention violations",
	Long: "Review a Python file for errors and, when none are found, for violations of the " +
		"coding conventions. The purpose is inferred first unless --purpose is given. " +
		"Prints " + review.Sentinel + " when there is nothing to report." + sizeLimitHelp,
	Args: cobra.ExactArgs(1),
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

		opts := review.OptionsFromConfig(cfg)
		path := args[0]
		purpose := flagPurpose
		if !cmd.Flags().Changed("purpose") {
			purpose, err = engine.InferProgramPurpose(ctx, path, opts)
			if err != nil {
				fail(cmd, err)
				return nil
			}
			if purpose == review.PathMissing || purpose == review.PathDirectory {
				if err := writeResult(cmd, purpose); err != nil {
					fail(cmd, err)
				}
				return nil
			}
		}

		comments, err := engine.GenerateComments(ctx, path, purpose, opts)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		if err := writeResult(cmd, comments); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Infer the purpose of and review every Python file under a path",
	Long: "Infer the purpose of and review every Python file under a path. " +
		"Files that fail are recorded in the report and the run continues." + sizeLimitHelp,
	Args: cobra.ExactArgs(1),
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

		report, err := engine.Analyze(ctx, args[0], review.OptionsFromConfig(cfg))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		report.Version = Version

		if err := output.WriteReport(report, cfg.Format, flagOut, cmd.OutOrStdout()); err != nil {
			fail(cmd, fmt.Errorf("writing report: %w", err))
			return nil
		}

		switch {
		case report.Summary.Failed > 0:
			exitCode = ExitRuntimeError
		case flagFailOnComments && report.HasComments():
			exitCode = ExitFindings
		}
		return nil
	},
}

func init() {
	commentsCmd.Flags().StringVar(&flagPurpose, "purpose", "", "Program purpose; inferred when omitted")
	analyzeCmd.Flags().BoolVar(&flagFailOnComments, "fail-on-comments", false, "Exit with code 1 when any file has comments")
}
