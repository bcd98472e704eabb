// Package main provides the odrlint CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odrtools/odrlint/internal/config"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
	"github.com/odrtools/odrlint/pkg/check/rules"
	"github.com/odrtools/odrlint/pkg/report"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "odrlint",
		Short:         "Semantic and geometry checker for OpenDRIVE files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCommand())
	return root
}

func newCheckCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "check <file.xodr>",
		Short: "Run semantic and geometry rules against an OpenDRIVE file",
		Example: `  # Check a file and print the issue table
  odrlint check network.xodr

  # Write the full report as yaml
  odrlint check network.xodr --output report.yaml

  # Override a tolerance for one run
  ODRLINT_TOLERANCES_HORIZONTAL_GAP=0.05 odrlint check network.xodr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), args[0], cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Config file (default odrlint.yaml)")
	cmd.Flags().StringP("output", "o", "", "Write the yaml report to this path")
	cmd.Flags().Int("workers", 0, "Checker worker pool size (default NumCPU)")
	cmd.Flags().StringSlice("disabled", nil, "Rule uids to skip")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose logging")

	return cmd
}

func runCheck(ctx context.Context, path string, cfg config.Config) error {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var (
		results       []check.CheckerResult
		schemaVersion string
	)
	doc, err := odr.LoadFile(path)
	if err != nil {
		log.Error("model build failed", "file", path, "error", err)
		results = check.FatalResult(err)
	} else {
		schemaVersion = doc.SchemaVersion()
		log.Debug("model loaded", "file", path, "schema_version", schemaVersion,
			"roads", len(doc.Roads), "junctions", len(doc.Junctions))

		runner, err := check.NewRunner(rules.All, cfg, log)
		if err != nil {
			return err
		}
		results, err = runner.Run(ctx, doc)
		if err != nil {
			return err
		}
	}

	rep := report.New(path, schemaVersion, results)
	rep.RenderTable(os.Stdout)

	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		if err := rep.WriteYAML(f); err != nil {
			return err
		}
		log.Debug("report written", "path", cfg.Output)
	}

	if rep.HasBlockingIssues() {
		os.Exit(1)
	}
	return nil
}
