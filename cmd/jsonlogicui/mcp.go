package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/pkg/mcp"
)

func newMCPCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the rule tools to agents over MCP stdio",
		Long: `Serve the rule tools over the Model Context Protocol on stdio.

Agents get logic.tree, logic.flowchart, logic.layout, logic.lint,
logic.eval, logic.testdata, logic.save and logic.query. The stored
library backs the save and query tools. Wire it into a client as a
stdio server running "jsonlogicui mcp".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lib, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()

			eng, err := evalbridge.New(a.cfg.Engine)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Library: lib,
				Engine:  eng,
				Logger:  a.logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
	return cmd
}
