package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/toolrelay/cmd/toolrelay/ask"
	chatcmder "github.com/papercomputeco/toolrelay/cmd/toolrelay/chat"
	historycmder "github.com/papercomputeco/toolrelay/cmd/toolrelay/history"
	mcpcmder "github.com/papercomputeco/toolrelay/cmd/toolrelay/mcp"
	servecmder "github.com/papercomputeco/toolrelay/cmd/toolrelay/serve"
	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

const rootLongDesc string = `Route chat prompts to local tool backends.

Each prompt is classified (keyword heuristics first, the backend's
classifier when those are undecided), sent to the matching tool endpoint
and recorded in a conversation history that is kept between sessions.

Examples:
  toolrelay chat
  toolrelay ask "write a python script that renames photos"
  toolrelay serve --listen :8090
  toolrelay history --json`

const rootShortDesc string = "Route chat prompts to local tool backends"

func newRootCmd() *cobra.Command {
	flags := &session.Flags{}

	cmd := &cobra.Command{
		Use:           "toolrelay",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.Register(cmd)

	cmd.AddCommand(chatcmder.NewChatCmd(flags))
	cmd.AddCommand(askcmder.NewAskCmd(flags))
	cmd.AddCommand(servecmder.NewServeCmd(flags))
	cmd.AddCommand(mcpcmder.NewMCPCmd(flags, version))
	cmd.AddCommand(historycmder.NewHistoryCmd(flags))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
