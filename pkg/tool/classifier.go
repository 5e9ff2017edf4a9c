package tool

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Remote classifies prompts the local heuristics cannot place.
type Remote interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Classifier runs the local heuristics first and falls back to a single
// remote call when they are undecided.
type Classifier struct {
	remote Remote
	logger *zap.Logger
}

// NewClassifier creates a new Classifier.
func NewClassifier(remote Remote, logger *zap.Logger) *Classifier {
	return &Classifier{remote: remote, logger: logger}
}

// Classify returns the tool for prompt. Remote failures are returned as-is
// and are not retried.
func (c *Classifier) Classify(ctx context.Context, prompt string) (ID, error) {
	if id := Local(prompt); id != Unknown {
		c.logger.Debug("classified locally", zap.String("tool", id.String()))
		return id, nil
	}

	name, err := c.remote.Classify(ctx, prompt)
	if err != nil {
		return Unknown, fmt.Errorf("remote classification: %w", err)
	}

	id := ParseID(name)
	c.logger.Debug("classified remotely",
		zap.String("answer", name),
		zap.String("tool", id.String()),
	)
	return id, nil
}
