package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/logger"
)

const askLongDesc string = `Send a single prompt and print the reply.

The prompt goes through the same routing as the chat and is recorded in
the conversation history. Generated code is saved to the output directory.

Examples:
  toolrelay ask "what is a merkle tree used for?"
  toolrelay ask --out ./gen write a react counter component
  toolrelay ask --storage memory "download the attention is all you need pdf"`

const askShortDesc string = "Send one prompt and print the reply"

type askCommander struct {
	flags *session.Flags
}

func NewAskCmd(flags *session.Flags) *cobra.Command {
	cmder := &askCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, prompt string) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.Log.Debug, true)
	defer log.Sync()

	s, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Controller.Submit(ctx, prompt)
	if err != nil {
		return fmt.Errorf("could not submit prompt: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Reply)
	if result.ArtifactPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", result.ArtifactPath)
	}

	if result.ArtifactErr != nil {
		return fmt.Errorf("could not save generated file: %w", result.ArtifactErr)
	}

	if result.Failure != conversation.NoFailure {
		log.Debug("submission failed", zap.String("kind", string(result.Failure)), zap.Error(result.Err))
		return fmt.Errorf("%s failed", result.Failure)
	}

	return nil
}
