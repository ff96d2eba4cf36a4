package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/lint"
	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

func newLibraryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage the stored rule library",
		Long: `Manage the stored rule library.

Rules live in an embedded database (default ~/.jsonlogicui/library.db,
override with --db or JSONLOGICUI_DB_PATH). Stored rules are available
to every command through --name.`,
	}

	cmd.AddCommand(
		newLibraryListCommand(a),
		newLibraryShowCommand(a),
		newLibrarySaveCommand(a),
		newLibraryRemoveCommand(a),
		newLibraryTagsCommand(a),
		newLibrarySeedCommand(a),
	)

	return cmd
}

func newLibraryListCommand(a *app) *cobra.Command {
	var (
		flagTag    string
		flagSearch string
		flagLimit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			rules, err := lib.List(ctx, library.Filter{Tag: flagTag, Search: flagSearch, Limit: flagLimit})
			if err != nil {
				return err
			}
			printRuleList(cmd.OutOrStdout(), rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTag, "tag", "", "only rules carrying this tag")
	cmd.Flags().StringVar(&flagSearch, "search", "", "substring match on name or description")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of rules (0 = all)")

	return cmd
}

// printRuleList prints names aligned, with tags and description behind.
func printRuleList(w io.Writer, rules []*library.StoredRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "no rules stored")
		return
	}
	maxLen := 0
	for _, r := range rules {
		maxLen = max(maxLen, len(r.Name))
	}
	for _, r := range rules {
		line := fmt.Sprintf("%-*s", maxLen, r.Name)
		if len(r.Tags) > 0 {
			line += "  [" + strings.Join(r.Tags, ", ") + "]"
		}
		if r.Description != "" {
			line += "  " + r.Description
		}
		fmt.Fprintln(w, line)
	}
}

func newLibraryShowCommand(a *app) *cobra.Command {
	var flagJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored rule with its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			sr, err := lib.GetByName(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sr)
			}

			fmt.Fprintf(out, "name         %s\n", sr.Name)
			if sr.Description != "" {
				fmt.Fprintf(out, "description  %s\n", sr.Description)
			}
			if len(sr.Tags) > 0 {
				fmt.Fprintf(out, "tags         %s\n", strings.Join(sr.Tags, ", "))
			}
			fmt.Fprintf(out, "updated      %s\n", sr.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "\n%s\n", strings.TrimRight(sr.Source, "\n"))
			if len(sr.SampleData) > 0 {
				fmt.Fprintf(out, "\nsample data: %s\n", sr.SampleData)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagJSON, "json", false, "print the full record as JSON")

	return cmd
}

func newLibrarySaveCommand(a *app) *cobra.Command {
	var (
		flagFile        string
		flagDescription string
		flagTags        []string
		flagSchemaFile  string
		flagSampleFile  string
	)

	cmd := &cobra.Command{
		Use:   "save <name> [file]",
		Short: "Save or update a rule in the library",
		Long: `Save a rule under a name, creating it or updating the existing entry.

Source comes from the file argument or stdin. An attached data schema
must compile, and attached sample data must satisfy it; lint findings
in the rule itself never block the save, they are just reported.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(logging.WithRuleName(cmd.Context(), args[0]), logging.SurfaceCLI)

			sourceArgs := args[1:]
			if flagFile != "" {
				sourceArgs = []string{flagFile}
			}
			source, _, err := a.readSource(ctx, cmd, sourceArgs, "")
			if err != nil {
				return err
			}

			linter, err := lint.NewLinter()
			if err != nil {
				return err
			}

			sr := &library.StoredRule{
				Name:        args[0],
				Description: flagDescription,
				Source:      source,
				Tags:        flagTags,
			}
			if flagSchemaFile != "" {
				raw, err := readJSONFile(flagSchemaFile)
				if err != nil {
					return err
				}
				if err := linter.CompileDataSchema(raw); err != nil {
					return rule.NewError(rule.ErrCodeValidation, "invalid data schema").WithCause(err)
				}
				sr.DataSchema = raw
			}
			if flagSampleFile != "" {
				raw, err := readJSONFile(flagSampleFile)
				if err != nil {
					return err
				}
				if len(sr.DataSchema) > 0 {
					var record map[string]any
					if err := json.Unmarshal(raw, &record); err != nil {
						return rule.NewError(rule.ErrCodeParse, "sample data must be a JSON object").WithCause(err)
					}
					if err := linter.ValidateData(record, sr.DataSchema); err != nil {
						return err
					}
				}
				sr.SampleData = raw
			}

			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			if err := lib.Save(ctx, sr); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "rule saved", slog.String("id", sr.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", sr.Name)

			// Advisory only. The stored rule parses; style findings are
			// the caller's call.
			if res := linter.Lint([]byte(source)); res.IssueCount() > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %d lint finding(s), run: jsonlogicui lint --name %s\n",
					res.IssueCount(), sr.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "rule source file (default: positional arg or stdin)")
	cmd.Flags().StringVarP(&flagDescription, "description", "d", "", "one-line description")
	cmd.Flags().StringArrayVarP(&flagTags, "tag", "t", nil, "tag (repeatable, replaces existing tags)")
	cmd.Flags().StringVar(&flagSchemaFile, "schema-file", "", "JSON Schema for this rule's data records")
	cmd.Flags().StringVar(&flagSampleFile, "sample-file", "", "sample data record")

	return cmd
}

func newLibraryRemoveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Delete a stored rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			sr, err := lib.GetByName(ctx, args[0])
			if err != nil {
				return err
			}
			if err := lib.Delete(ctx, sr.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", sr.Name)
			return nil
		},
	}
	return cmd
}

func newLibraryTagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List all tags in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			tags, err := lib.Tags(ctx)
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	return cmd
}

func newLibrarySeedCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install the built-in example rules",
		Long: `Install the built-in example rules.

Seeding is additive: examples already present (by name) are left
untouched, so local edits survive re-seeding.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			n, err := lib.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d example rule(s)\n", n)
			return nil
		},
	}
	return cmd
}
