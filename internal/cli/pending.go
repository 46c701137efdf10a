package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// PendingResult is the JSON output of the pending command.
type PendingResult struct {
	Pending []domain.Exchange `json:"pending"`
	Total   int               `json:"total"`
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List unanswered questions",
		Long: `List every question still waiting for a reply, oldest first.

Examples:
  tutorbot pending
  tutorbot pending --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, cmd)
		},
	}
	return cmd
}

func runPending(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Store.Snapshot(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read pending questions", err)
	}
	res := PendingResult{Pending: make([]domain.Exchange, 0, len(snap)), Total: len(snap)}
	for _, ex := range snap {
		res.Pending = append(res.Pending, ex)
	}
	sort.Slice(res.Pending, func(i, j int) bool {
		pi, pj := res.Pending[i], res.Pending[j]
		if !pi.AskedAt.Equal(pj.AskedAt) {
			return pi.AskedAt.Before(pj.AskedAt)
		}
		return pi.CorrelationKey < pj.CorrelationKey
	})

	out := output{format: opts.Format, w: cmd.OutOrStdout()}
	return out.emit(res, func(w io.Writer) error {
		if res.Total == 0 {
			_, err := fmt.Fprintln(w, "no pending questions")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tQID\tDIR\tASKED AT\tSENTENCE")
		for _, ex := range res.Pending {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				ex.CorrelationKey, ex.QuestionID, ex.Direction, ex.AskedAt.UTC().Format(time.RFC3339), ex.PromptText)
		}
		return tw.Flush()
	})
}
