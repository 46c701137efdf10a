package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	OlderThan time.Duration
}

// SweepResult is the JSON output of the sweep command.
type SweepResult struct {
	Swept  []domain.Exchange `json:"swept"`
	Total  int               `json:"total"`
	Cutoff time.Duration     `json:"older_than_ns"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Drop pending questions older than a duration",
		Long: `Remove pending questions asked longer ago than --older-than. Replies to a
swept question are ignored afterwards. The redis backend expires records on
its own and cannot be swept.

Examples:
  tutorbot sweep --older-than 72h
  tutorbot sweep                      # uses PENDING_MAX_AGE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", rootOpts.Config.Store.PendingMaxAge, "maximum age of a pending question")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	if opts.OlderThan <= 0 {
		return NewExitError(ExitCommandError, "--older-than must be > 0")
	}
	a, err := openApp(cmd.Context(), opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Sweeper == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("pending backend %q cannot be swept", opts.Config.Store.PendingBackend))
	}
	sw := *a.Sweeper
	sw.MaxAge = opts.OlderThan

	swept, err := sw.SweepOnce(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "sweep failed", err)
	}
	if swept == nil {
		swept = []domain.Exchange{}
	}

	res := SweepResult{Swept: swept, Total: len(swept), Cutoff: opts.OlderThan}
	out := output{format: opts.Format, w: cmd.OutOrStdout()}
	return out.emit(res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "swept %d pending question(s) older than %s\n", res.Total, opts.OlderThan)
		return err
	})
}
