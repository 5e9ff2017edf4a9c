// Package dispatch issues the tool-specific backend call for a classified
// prompt and turns the reply into a Response.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/backend"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

// Poster is the transport the dispatcher sends requests over.
type Poster interface {
	PostJSON(ctx context.Context, path string, in, out any) error
	Endpoints() backend.Endpoints
}

// Dispatcher performs exactly one backend call per Dispatch.
type Dispatcher struct {
	poster Poster
	logger *zap.Logger
}

// New creates a new Dispatcher.
func New(poster Poster, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{poster: poster, logger: logger}
}

// Dispatch sends prompt to the endpoint bound to id. Every error it returns is
// a *Failure.
func (d *Dispatcher) Dispatch(ctx context.Context, id tool.ID, prompt string) (*Response, error) {
	r, ok := routes[id]
	if !ok {
		return nil, &Failure{Tool: id, Message: fmt.Sprintf("no route for tool %q", id)}
	}

	resp, err := r.call(ctx, d.poster, prompt)
	if err != nil {
		d.logger.Warn("dispatch failed",
			zap.String("tool", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	d.logger.Debug("dispatch succeeded",
		zap.String("tool", id.String()),
		zap.String("response_id", resp.ID.String()),
		zap.String("payload_preview", logger.Truncate(resp.Payload, 100)),
	)
	return resp, nil
}

// route is one entry in the dispatch table.
type route interface {
	call(ctx context.Context, poster Poster, prompt string) (*Response, error)
}

// binding ties a request builder and a response interpreter to one endpoint.
type binding[Req, Resp any] struct {
	tool      tool.ID
	endpoint  func(backend.Endpoints) string
	build     func(prompt string) Req
	interpret func(prompt string, resp Resp) (*Response, error)

	// fail maps a transport error to a Failure. Nil uses the error text.
	fail func(err error) error
}

func (b binding[Req, Resp]) call(ctx context.Context, poster Poster, prompt string) (*Response, error) {
	var resp Resp
	if err := poster.PostJSON(ctx, b.endpoint(poster.Endpoints()), b.build(prompt), &resp); err != nil {
		if b.fail != nil {
			return nil, b.fail(err)
		}
		return nil, &Failure{Tool: b.tool, Message: err.Error(), Err: err}
	}

	return b.interpret(prompt, resp)
}
