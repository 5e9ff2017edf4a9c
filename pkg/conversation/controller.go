// Package conversation orchestrates a user submission: it records the user
// turn, classifies and dispatches the prompt, records the reply and runs any
// side effect the reply carries.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/papercomputeco/toolrelay/pkg/dispatch"
	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/logger"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

// persistTimeout bounds a history write. Writes do not inherit the
// submission's cancellation, so a reply is still recorded after the caller
// gives up.
const persistTimeout = 10 * time.Second

var (
	// ErrEmptyInput is returned for blank prompts. Nothing is recorded.
	ErrEmptyInput = errors.New("empty prompt")

	// ErrBusy is returned by TrySubmit while another submission is running.
	ErrBusy = errors.New("a submission is already in progress")
)

// Classifier picks the tool for a prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (tool.ID, error)
}

// Dispatcher runs the tool call for a classified prompt.
type Dispatcher interface {
	Dispatch(ctx context.Context, id tool.ID, prompt string) (*dispatch.Response, error)
}

// Saver persists a response's artifact, at most once per response.
type Saver interface {
	Save(ctx context.Context, resp *dispatch.Response) (string, error)
}

// Result describes a processed submission.
type Result struct {
	Tool  tool.ID
	Reply string // Content of the assistant turn that was appended

	// Response is nil when the submission failed.
	Response     *dispatch.Response
	ArtifactPath string
	ArtifactErr  error // Set when the response carried a file that could not be saved

	Failure FailureKind
	Err     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to be called on every state transition.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// Controller processes submissions one at a time so history appends never
// interleave.
type Controller struct {
	log        *history.Log
	classifier Classifier
	dispatcher Dispatcher
	saver      Saver
	logger     *zap.Logger

	sem *semaphore.Weighted

	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// New creates a new Controller. The log should already be loaded.
func New(log *history.Log, classifier Classifier, dispatcher Dispatcher, saver Saver, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		log:        log,
		classifier: classifier,
		dispatcher: dispatcher,
		saver:      saver,
		logger:     logger,
		sem:        semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit processes prompt, waiting for any outstanding submission to finish
// first. Classification and dispatch failures are not returned as errors;
// they are recorded as an assistant error turn and reported in the Result.
func (c *Controller) Submit(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyInput
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for previous submission: %w", err)
	}
	defer c.sem.Release(1)

	return c.run(ctx, prompt), nil
}

// TrySubmit is Submit without waiting: it returns ErrBusy if a submission
// is outstanding.
func (c *Controller) TrySubmit(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyInput
	}

	if !c.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer c.sem.Release(1)

	return c.run(ctx, prompt), nil
}

// Wait blocks until no submission is outstanding, or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for outstanding submission: %w", err)
	}
	c.sem.Release(1)
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// History returns the conversation so far.
func (c *Controller) History() []history.Turn {
	return c.log.Turns()
}

func (c *Controller) run(ctx context.Context, prompt string) *Result {
	c.appendTurn(ctx, history.UserTurn(prompt))
	c.setState(StateUserTurnAppended)

	c.setState(StateClassifying)
	id, err := c.classifier.Classify(ctx, prompt)
	if err != nil {
		return c.fail(ctx, &Result{Tool: tool.Unknown}, ClassificationFailure,
			"❌ Tool detection failed: "+err.Error(), err)
	}

	c.logger.Info("prompt classified",
		zap.String("tool", id.String()),
		zap.String("prompt_preview", logger.Truncate(prompt, 50)),
	)

	c.setState(StateDispatching)
	resp, err := c.dispatcher.Dispatch(ctx, id, prompt)
	if err != nil {
		return c.fail(ctx, &Result{Tool: id}, DispatchFailure, "❌ "+err.Error(), err)
	}

	c.appendTurn(ctx, history.AssistantTurn(resp.Payload))
	c.setState(StateAssistantTurnAppended)

	result := &Result{
		Tool:     id,
		Reply:    resp.Payload,
		Response: resp,
	}

	if resp.Artifact != nil {
		path, err := c.saver.Save(ctx, resp)
		if err != nil {
			c.logger.Error("failed to save artifact",
				zap.String("filename", resp.Artifact.Filename),
				zap.Error(err),
			)
		}
		result.ArtifactPath = path
		result.ArtifactErr = err
	}

	c.setState(StateIdle)
	return result
}

func (c *Controller) fail(ctx context.Context, result *Result, kind FailureKind, message string, err error) *Result {
	c.setState(StateFailed)
	c.logger.Warn("submission failed",
		zap.String("kind", string(kind)),
		zap.String("tool", result.Tool.String()),
		zap.Error(err),
	)

	c.appendTurn(ctx, history.AssistantTurn(message))

	result.Reply = message
	result.Failure = kind
	result.Err = err

	c.setState(StateIdle)
	return result
}

// appendTurn records turn. A failed write is logged and does not fail the
// submission; the turn is still in the log and goes out with the next write.
func (c *Controller) appendTurn(ctx context.Context, turn history.Turn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := c.log.Append(ctx, turn); err != nil {
		c.logger.Error("failed to persist history",
			zap.String("role", string(turn.Role)),
			zap.Error(err),
		)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	observers := c.observers
	c.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}
