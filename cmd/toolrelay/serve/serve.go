package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/server"
)

const serveLongDesc string = `Serve the chat over a local HTTP API.

Endpoints:
  POST /api/prompt      {"prompt": "..."} routes a prompt and returns the reply
  GET  /api/history     the recorded conversation, oldest turn first
  GET  /health          liveness
  GET  /health/backend  reachability of the tool backend

Prompts are handled one at a time; concurrent requests wait their turn.

Examples:
  toolrelay serve
  toolrelay serve --listen 127.0.0.1:9000 --storage file --db ~/.toolrelay/history`

const serveShortDesc string = "Serve the chat over a local HTTP API"

type serveCommander struct {
	flags  *session.Flags
	listen string
}

func NewServeCmd(flags *session.Flags) *cobra.Command {
	cmder := &serveCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, :8090)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	log := logger.NewLogger(cfg.Log.Debug)
	defer log.Sync()

	s, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen}, s.Controller, s.Backend, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("toolrelay server starting",
		zap.String("listen", cfg.Server.Listen),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
	)

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
