package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/datagen"
	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

func newDataCommand(a *app) *cobra.Command {
	var (
		flagName string
		flagSeed int64
		flagSet  []string
	)

	cmd := &cobra.Command{
		Use:   "data [file]",
		Short: "Synthesize a random test-data record for a rule",
		Long: `Synthesize a test-data record covering every variable a rule reads.

Value types are guessed from adjacent comparison literals, so
{"<": [{"var": "age"}, 65]} yields a numeric age. Pass --seed for a
reproducible record and --set path=value to pin individual fields:

  jsonlogicui data rule.json --seed 7 --set user.age=42 --set plan=pro`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			r, _, err := a.loadRule(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}

			seed := time.Now().UnixNano()
			if cmd.Flags().Changed("seed") {
				seed = flagSeed
			}
			gen, err := datagen.New(seed)
			if err != nil {
				return err
			}
			record, err := gen.Generate(ctx, r)
			if err != nil {
				return err
			}

			overrides, err := parseOverrides(flagSet)
			if err != nil {
				return err
			}
			if len(overrides) > 0 {
				record, err = gen.Merge(ctx, record, overrides)
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "generate data for a stored library rule")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed (default: current time)")
	cmd.Flags().StringArrayVar(&flagSet, "set", nil,
		"pin a field to a value, as path=value (repeatable; value parsed as JSON, else kept as a string)")

	return cmd
}

// parseOverrides turns --set path=value pairs into an override record.
// Values that parse as JSON keep their type; anything else is a string,
// so --set plan=pro works without quoting.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		path, raw, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, rule.NewErrorf(rule.ErrCodeValidation, "override %q is not path=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[strings.TrimSpace(path)] = v
	}
	return out, nil
}
