package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/logging"
)

func newEvalCommand(a *app) *cobra.Command {
	var (
		flagName     string
		flagData     string
		flagDataFile string
		flagEngine   string
	)

	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a rule against a data record",
		Long: `Evaluate a rule against a data record and print the result as JSON.

The rule is translated into real expression source and run by the
configured engine (expr by default, cel with --engine cel). Missing
variables evaluate to null. Operators the chosen dialect cannot express
fail with an EVAL_ERROR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			r, _, err := a.loadRule(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}
			data, err := loadData(flagData, flagDataFile)
			if err != nil {
				return err
			}
			if data == nil {
				data = map[string]any{}
			}
			eng, err := a.engine(flagEngine)
			if err != nil {
				return err
			}
			v, err := eng.Evaluate(ctx, r, data)
			if err != nil {
				return err
			}
			out, err := json.Marshal(v)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "evaluate a stored library rule")
	cmd.Flags().StringVar(&flagData, "data", "", "JSON data record")
	cmd.Flags().StringVar(&flagDataFile, "data-file", "", "file with the JSON data record")
	cmd.Flags().StringVar(&flagEngine, "engine", "", "evaluation engine: expr or cel")

	return cmd
}
