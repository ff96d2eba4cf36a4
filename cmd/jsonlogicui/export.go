package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/exporter"
	"github.com/madpin/jsonlogicui/internal/render"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		flagOut        string
		flagFormats    []string
		flagHorizontal bool
		flagExpandAll  bool
		flagWorkers    int
		flagSchedule   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every library rule into an output directory",
		Long: `Render every library rule in every format into an output directory.

Each format writes into its own subdirectory, one file per rule. With
--schedule the command keeps running and re-exports on the cron spec
(standard five fields), so a docs directory stays in sync with the
library. Stop it with ctrl-c.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			out := flagOut
			if out == "" {
				out = a.cfg.ExportDir
			}
			opts := exporter.Options{
				Dir:         out,
				Formats:     flagFormats,
				Orientation: orientationFlag(flagHorizontal),
				ExpandAll:   flagExpandAll,
				Workers:     flagWorkers,
			}
			exp := exporter.New(lib, render.Default(), a.logger)

			if flagSchedule != "" {
				return runScheduled(cmd, exp, opts, flagSchedule, a)
			}

			report, err := exp.Export(ctx, opts)
			if err != nil {
				return err
			}
			printReport(cmd, report, out)
			if n := len(report.Failures); n > 0 {
				return fmt.Errorf("%d render(s) failed", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "output directory (default: export_dir config, ./diagrams)")
	cmd.Flags().StringArrayVar(&flagFormats, "format", nil,
		"format to export (repeatable; default: all registered formats)")
	cmd.Flags().BoolVar(&flagHorizontal, "horizontal", false, "lay diagrams out left to right")
	cmd.Flags().BoolVar(&flagExpandAll, "expand-all", false, "expand subtrees collapsed by default")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel renders (default 4)")
	cmd.Flags().StringVar(&flagSchedule, "schedule", "", `re-export on a cron spec, e.g. "*/30 * * * *"`)

	return cmd
}

func printReport(cmd *cobra.Command, report *exporter.Report, dir string) {
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d file(s) for %d rule(s) to %s in %s\n",
		report.Files, report.Rules, dir, report.Elapsed.Round(time.Millisecond))
	for _, f := range report.Failures {
		if f.Format == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %s\n", f.Rule, f.Err)
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s (%s): %s\n", f.Rule, f.Format, f.Err)
	}
}

// runScheduled exports on the cron spec until interrupted.
func runScheduled(cmd *cobra.Command, exp *exporter.Exporter, opts exporter.Options, spec string, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := exporter.NewScheduler(exp, opts, spec, a.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	if next, err := sched.Next(time.Now()); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "exporting on schedule %q, next run %s (ctrl-c to stop)\n",
			spec, next.Format(time.RFC3339))
	}

	<-ctx.Done()
	sched.Stop()
	return nil
}
