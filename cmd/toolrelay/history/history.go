package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolrelay/cmd/toolrelay/session"
	"github.com/papercomputeco/toolrelay/pkg/config"
	"github.com/papercomputeco/toolrelay/pkg/history"
)

const historyLongDesc string = `Print the recorded conversation, oldest turn first.

Examples:
  toolrelay history
  toolrelay history --last 10
  toolrelay history --json --db ~/.toolrelay/toolrelay.db`

const historyShortDesc string = "Print the recorded conversation"

type historyCommander struct {
	flags  *session.Flags
	last   int
	asJSON bool
}

func NewHistoryCmd(flags *session.Flags) *cobra.Command {
	cmder := &historyCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.last, "last", "n", 0, "Only print the last n turns")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the turns as a JSON array")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Config()
	if err != nil {
		return err
	}

	turns, err := c.load(ctx, cfg)
	if err != nil {
		return err
	}

	if c.last > 0 && c.last < len(turns) {
		turns = turns[len(turns)-c.last:]
	}

	if c.asJSON {
		return writeJSON(cmd.OutOrStdout(), turns)
	}

	if len(turns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
		return nil
	}

	for _, t := range turns {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Role, t.Content)
	}

	return nil
}

// load reads the log straight from the store; no backend is contacted.
func (c *historyCommander) load(ctx context.Context, cfg config.Config) ([]history.Turn, error) {
	store, err := session.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	log := history.NewLog(store, cfg.Storage.HistoryKey)
	if err := log.Load(ctx); err != nil {
		return nil, fmt.Errorf("could not load history: %w", err)
	}

	return log.Turns(), nil
}

func writeJSON(w io.Writer, turns []history.Turn) error {
	if turns == nil {
		turns = []history.Turn{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(turns); err != nil {
		return fmt.Errorf("could not encode history: %w", err)
	}

	return nil
}
