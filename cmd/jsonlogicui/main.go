// Command jsonlogicui renders, lints and evaluates JSONLogic-style
// rules from the terminal. Rules come from a file argument, stdin, or
// the stored library via --name.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// app carries the resolved configuration and logger into every
// subcommand. PersistentPreRun fills it after flags are parsed.
type app struct {
	cfg    Config
	logger *slog.Logger
}

func newRootCommand(a *app) *cobra.Command {
	var flagDB, flagLogLevel string

	root := &cobra.Command{
		Use:   "jsonlogicui",
		Short: "Visualize, lint and evaluate JSONLogic-style rules",
		Long: `jsonlogicui turns JSONLogic-style rule documents into decision trees,
Mermaid flowcharts, ASCII diagrams and layout geometry, and ships the
collaborators around them: a linter, expression-engine evaluation,
test-data synthesis and a persistent rule library.

Rules are JSON with // and /* */ comments allowed. Most commands read a
rule from a file argument, from stdin when the argument is omitted or
is "-", or from the library with --name.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = loadConfig()
			if flagDB != "" {
				a.cfg.DBPath = flagDB
			}
			if flagLogLevel != "" {
				a.cfg.LogLevel = flagLogLevel
			}
			a.logger = newLogger(a.cfg.LogLevel)
		},
	}

	root.PersistentFlags().StringVar(&flagDB, "db", "",
		"rule library database path (default ~/.jsonlogicui/library.db)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"log level: debug, info, warn or error")

	root.AddCommand(
		newTreeCommand(a),
		newFlowCommand(a),
		newASCIICommand(a),
		newLintCommand(a),
		newEvalCommand(a),
		newDataCommand(a),
		newLibraryCommand(a),
		newExportCommand(a),
		newMCPCommand(a),
		newVersionCommand(),
	)

	root.SilenceErrors = true
	root.SilenceUsage = true

	return root
}

func main() {
	root := newRootCommand(&app{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
