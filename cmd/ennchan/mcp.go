package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mikeboe/ennchan-rag/pkg/tools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask and search tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, logs stay on stderr
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := tools.NewRagToolset(rt).NewServer(tools.Version)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
