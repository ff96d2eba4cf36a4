package main

import (
	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/internal/render"
)

func newTreeCommand(a *app) *cobra.Command {
	var (
		flagName      string
		flagTitle     string
		flagData      string
		flagDataFile  string
		flagEngine    string
		flagExpandAll bool
	)

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Print a rule as an indented decision tree",
		Long: `Print a rule as an indented decision tree.

Chained if/else-if rules become one condition per line with ✓/✗ branch
markers. With --data, every node also shows the value it evaluates to
against that record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			r, title, err := a.loadRule(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}
			if flagTitle != "" {
				title = flagTitle
			}
			req := render.Request{Rule: r, ExpandAll: flagExpandAll, Title: title}
			data, err := loadData(flagData, flagDataFile)
			if err != nil {
				return err
			}
			if data != nil {
				eng, err := a.engine(flagEngine)
				if err != nil {
					return err
				}
				req.Data = data
				req.Evaluator = eng
			}
			return renderOut(ctx, cmd, "tree", req)
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "render a stored library rule")
	cmd.Flags().StringVar(&flagTitle, "title", "", "title line above the tree")
	cmd.Flags().StringVar(&flagData, "data", "", "JSON data record for value overlays")
	cmd.Flags().StringVar(&flagDataFile, "data-file", "", "file with the JSON data record")
	cmd.Flags().StringVar(&flagEngine, "engine", "", "evaluation engine for overlays: expr or cel")
	cmd.Flags().BoolVar(&flagExpandAll, "expand-all", false, "show subtrees collapsed by default")

	return cmd
}

func newFlowCommand(a *app) *cobra.Command {
	var (
		flagName       string
		flagTitle      string
		flagHorizontal bool
		flagExpandAll  bool
	)

	cmd := &cobra.Command{
		Use:   "flow [file]",
		Short: "Emit a rule as a Mermaid flowchart",
		Long: `Emit a rule as a Mermaid flowchart document.

Decisions render as diamonds with ✓ Yes / ✗ No edges, iteration
operators as hexagons. Paste the output into any Mermaid renderer or
save it as .mmd.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			r, title, err := a.loadRule(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}
			if flagTitle != "" {
				title = flagTitle
			}
			return renderOut(ctx, cmd, "mermaid", render.Request{
				Rule:        r,
				Orientation: orientationFlag(flagHorizontal),
				ExpandAll:   flagExpandAll,
				Title:       title,
			})
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "render a stored library rule")
	cmd.Flags().StringVar(&flagTitle, "title", "", "flowchart title")
	cmd.Flags().BoolVar(&flagHorizontal, "horizontal", false, "lay the chart out left to right")
	cmd.Flags().BoolVar(&flagExpandAll, "expand-all", false, "expand array elements into their own nodes")

	return cmd
}

func newASCIICommand(a *app) *cobra.Command {
	var (
		flagName       string
		flagTitle      string
		flagHorizontal bool
		flagExpandAll  bool
	)

	cmd := &cobra.Command{
		Use:   "ascii [file]",
		Short: "Draw a rule as a box diagram in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSurface(cmd.Context(), logging.SurfaceCLI)
			r, title, err := a.loadRule(ctx, cmd, args, flagName)
			if err != nil {
				return err
			}
			if flagTitle != "" {
				title = flagTitle
			}
			return renderOut(ctx, cmd, "ascii", render.Request{
				Rule:        r,
				Orientation: orientationFlag(flagHorizontal),
				ExpandAll:   flagExpandAll,
				Title:       title,
			})
		},
	}

	cmd.Flags().StringVarP(&flagName, "name", "n", "", "render a stored library rule")
	cmd.Flags().StringVar(&flagTitle, "title", "", "diagram title")
	cmd.Flags().BoolVar(&flagHorizontal, "horizontal", false, "lay the diagram out left to right")
	cmd.Flags().BoolVar(&flagExpandAll, "expand-all", false, "show subtrees collapsed by default")

	return cmd
}
