// Package server exposes the conversation controller over a local HTTP API so
// browser extensions and scripts can submit prompts and read the history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/dispatch"
	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/llm"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

// Controller is the part of conversation.Controller the server needs.
type Controller interface {
	Submit(ctx context.Context, prompt string) (*conversation.Result, error)
	History() []history.Turn
}

// Pinger checks that the tool backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the local HTTP front end. Submissions are handed to the
// controller, which queues them, so concurrent requests never interleave
// history appends.
type Server struct {
	config     Config
	controller Controller
	backend    Pinger
	logger     *zap.Logger
	server     *fiber.App
}

// PromptRequest is the body of POST /api/prompt.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// PromptResponse reports how a prompt was handled.
type PromptResponse struct {
	Tool     tool.ID         `json:"tool"`
	Status   dispatch.Status `json:"status"`
	Reply    string          `json:"reply"`
	Artifact string          `json:"artifact,omitempty"` // Path of the saved file, if any
	Failure  string          `json:"failure,omitempty"`  // "classification" or "dispatch"

	// ArtifactError is set when the reply carried a file that could not be saved.
	ArtifactError string `json:"artifact_error,omitempty"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Count int            `json:"count"`
	Turns []history.Turn `json:"turns"`
}

// New creates a new Server.
func New(config Config, controller Controller, backend Pinger, logger *zap.Logger) (*Server, error) {
	if controller == nil {
		return nil, errors.New("server: nil controller")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		controller: controller,
		backend:    backend,
		logger:     logger,
		server:     app,
	}

	app.Post("/api/prompt", s.handlePrompt)
	app.Get("/api/history", s.handleHistory)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/health/backend", s.handleBackendHealth)

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting front end server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(l net.Listener) error {
	s.logger.Info("starting front end server", zap.String("listen", l.Addr().String()))
	return s.server.Listener(l)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// handlePrompt runs one submission through the controller.
func (s *Server) handlePrompt(c *fiber.Ctx) error {
	startTime := time.Now()

	var req PromptRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Debug("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.controller.Submit(c.Context(), req.Prompt)
	if errors.Is(err, conversation.ErrEmptyInput) {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "prompt is required"})
	}
	if err != nil {
		s.logger.Error("submission not processed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "submission not processed"})
	}

	resp := PromptResponse{
		Tool:     result.Tool,
		Status:   dispatch.StatusSuccess,
		Reply:    result.Reply,
		Artifact: result.ArtifactPath,
	}
	if result.Failure != conversation.NoFailure {
		resp.Status = dispatch.StatusFailure
		resp.Failure = string(result.Failure)
	}
	if result.ArtifactErr != nil {
		resp.ArtifactError = result.ArtifactErr.Error()
	}

	s.logger.Debug("prompt handled",
		zap.String("tool", result.Tool.String()),
		zap.String("status", string(resp.Status)),
		zap.String("reply_preview", logger.Truncate(result.Reply, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return c.JSON(resp)
}

// handleHistory returns the conversation in order.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	turns := s.controller.History()
	return c.JSON(HistoryResponse{Count: len(turns), Turns: turns})
}

// handleBackendHealth reports whether the tool backend answers.
func (s *Server) handleBackendHealth(c *fiber.Ctx) error {
	if s.backend == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "no backend configured"})
	}

	if err := s.backend.Ping(c.Context()); err != nil {
		s.logger.Warn("backend ping failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "backend unreachable"})
	}

	return c.JSON(map[string]string{"status": "ok"})
}
