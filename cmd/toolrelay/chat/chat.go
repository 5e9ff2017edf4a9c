package chatcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/pkg/tui"
)

const chatLongDesc string = `Start an interactive chat.

Earlier turns are loaded from the conversation history and every new
exchange is appended to it. While a reply is pending the input is locked.

When stdin is not a terminal, prompts are read one per line and each reply
is printed before the next prompt is sent.

Examples:
  toolrelay chat
  toolrelay chat --backend http://192.168.1.42:8010
  printf 'hello\nwrite a python fizzbuzz\n' | toolrelay chat`

const chatShortDesc string = "Start an interactive chat"

const drainTimeout = 15 * time.Second

type chatCommander struct {
	flags *session.Flags
}

func NewChatCmd(flags *session.Flags) *cobra.Command {
	cmder := &chatCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}

	if !isTerminal(cmd.InOrStdin()) {
		log := logger.New(cmd.ErrOrStderr(), cfg.Log.Debug, false)
		defer log.Sync()

		s, err := session.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		return tui.RunLines(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s.Controller)
	}

	// The screen belongs to the chat, so logs go to a file.
	log, closeLog, err := logger.NewFileLogger(cfg.Log.File, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer closeLog()
	defer log.Sync()

	s, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info("chat started",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("turns", s.Log.Len()),
	)

	runErr := tui.Run(ctx, s.Controller, tui.Options{GlamourStyle: glamourStyle()})

	// An abandoned or interrupted reply is still being recorded; let it land
	// before the store closes.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := s.Controller.Wait(waitCtx); err != nil {
		log.Warn("outstanding submission not recorded", zap.Error(err))
	}

	if runErr != nil {
		return fmt.Errorf("chat exited: %w", runErr)
	}

	return nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func glamourStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
