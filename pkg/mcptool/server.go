// Package mcptool exposes prompt routing as MCP tools, so agents can use the
// same backend tools and shared history as the chat front ends.
package mcptool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/dispatch"
	"github.com/papercomputeco/toolrelay/pkg/history"
)

// Controller is the part of conversation.Controller the tools need.
type Controller interface {
	Submit(ctx context.Context, prompt string) (*conversation.Result, error)
	History() []history.Turn
}

// RouteInput is the argument of the route_prompt tool.
type RouteInput struct {
	Prompt string `json:"prompt" jsonschema:"free-text request; it is routed to chat, PDF download or code generation"`
}

// RouteOutput is the structured result of the route_prompt tool.
type RouteOutput struct {
	Tool     string `json:"tool"`
	Status   string `json:"status"`
	Reply    string `json:"reply"`
	Artifact string `json:"artifact,omitempty"`

	ArtifactError string `json:"artifact_error,omitempty"`
}

// HistoryInput is the argument of the read_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"return only the most recent turns; 0 returns all"`
}

// HistoryOutput is the structured result of the read_history tool.
type HistoryOutput struct {
	Turns []history.Turn `json:"turns"`
}

// NewServer creates an MCP server with the routing tools registered.
func NewServer(controller Controller, version string, logger *zap.Logger) *mcp.Server {
	h := &handler{controller: controller, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{Name: "toolrelay", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "route_prompt",
		Description: "Send a prompt through toolrelay: it picks the backend tool, runs it and records the exchange in the conversation history.",
	}, h.routePrompt)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_history",
		Description: "Read the recorded conversation history, oldest turn first.",
	}, h.readHistory)

	return server
}

type handler struct {
	controller Controller
	logger     *zap.Logger
}

func (h *handler) routePrompt(ctx context.Context, _ *mcp.CallToolRequest, in RouteInput) (*mcp.CallToolResult, RouteOutput, error) {
	result, err := h.controller.Submit(ctx, in.Prompt)
	if err != nil {
		return nil, RouteOutput{}, fmt.Errorf("prompt not routed: %w", err)
	}

	out := RouteOutput{
		Tool:     result.Tool.String(),
		Status:   string(dispatch.StatusSuccess),
		Reply:    result.Reply,
		Artifact: result.ArtifactPath,
	}
	if result.Failure != conversation.NoFailure {
		out.Status = string(dispatch.StatusFailure)
	}

	text := result.Reply
	if result.ArtifactErr != nil {
		out.ArtifactError = result.ArtifactErr.Error()
		text += "\n\nfile not saved: " + out.ArtifactError
	}

	h.logger.Debug("mcp prompt routed",
		zap.String("tool", out.Tool),
		zap.String("status", out.Status),
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: result.Failure != conversation.NoFailure,
	}, out, nil
}

func (h *handler) readHistory(_ context.Context, _ *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	turns := h.controller.History()
	if in.Limit > 0 && in.Limit < len(turns) {
		turns = turns[len(turns)-in.Limit:]
	}

	return nil, HistoryOutput{Turns: turns}, nil
}
