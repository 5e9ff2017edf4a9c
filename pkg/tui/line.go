package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/papercomputeco/toolrelay/pkg/conversation"
)

// RunLines is the chat for non-interactive input: one prompt per line, each
// reply written before the next line is read. Blank lines are skipped.
func RunLines(ctx context.Context, r io.Reader, w io.Writer, submitter Submitter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := submitter.Submit(ctx, scanner.Text())
		if errors.Is(err, conversation.ErrEmptyInput) {
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(w, result.Reply)
		if result.ArtifactPath != "" {
			fmt.Fprintf(w, "saved %s\n", result.ArtifactPath)
		}
		if result.ArtifactErr != nil {
			fmt.Fprintf(w, "file not saved: %v\n", result.ArtifactErr)
		}
	}

	return scanner.Err()
}
