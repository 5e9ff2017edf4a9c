package mcpcmder

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/pkg/mcptool"
)

const mcpLongDesc string = `Serve prompt routing as MCP tools over stdio.

Tools:
  route_prompt  routes a prompt and records the exchange in the history
  read_history  returns the recorded conversation

Logs are written to stderr; stdout carries the protocol.

Example client configuration:
  {"command": "toolrelay", "args": ["mcp"]}`

const mcpShortDesc string = "Serve prompt routing as MCP tools over stdio"

type mcpCommander struct {
	flags   *session.Flags
	version string
}

func NewMCPCmd(flags *session.Flags, version string) *cobra.Command {
	cmder := &mcpCommander{flags: flags, version: version}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.Log.Debug, false)
	defer log.Sync()

	s, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	server := mcptool.NewServer(s.Controller, c.version, log)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}

	return nil
}
