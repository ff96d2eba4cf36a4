package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/lint"
	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

func newLintCommand(a *app) *cobra.Command {
	var (
		flagName string
		flagJSON bool
	)

	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Check a rule for structural and arity problems",
		Long: `Check a rule document for structural and arity problems.

Findings come in two severities: errors (unparseable JSON, schema
violations, wrong operand counts) and warnings (unknown operators,
empty rules). The exit status is nonzero only when errors are present.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			source, _, err := a.readSource(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}
			linter, err := lint.NewLinter()
			if err != nil {
				return err
			}
			res := linter.Lint([]byte(source))

			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printFindings(out, res)
			}

			if n := len(res.Errors); n > 0 {
				return fmt.Errorf("rule has %d lint error(s)", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "lint a stored library rule")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print findings as JSON")

	return cmd
}

func printFindings(w io.Writer, res *rule.ValidationResult) {
	if res.IssueCount() == 0 {
		fmt.Fprintln(w, "no findings")
		return
	}
	for _, f := range res.Errors {
		printFinding(w, f)
	}
	for _, f := range res.Warnings {
		printFinding(w, f)
	}
}

func printFinding(w io.Writer, f rule.ValidationIssue) {
	at := f.Path
	if at == "" {
		at = "rule"
	}
	fmt.Fprintf(w, "%-8s %s: %s\n", f.Severity, at, f.Message)
}
