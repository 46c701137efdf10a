package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/services"
)

// AskOptions holds flags for the ask command.
type AskOptions struct {
	*RootOptions
	Chat string
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Send a question to a chat",
		Long: `Send one question to a chat and record it as pending.

Exit codes:
  0 - question sent
  1 - the chat API rejected the message
  2 - command error

Examples:
  tutorbot ask --chat 123456789
  tutorbot ask --chat 123456789 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chat, "chat", "", "chat id (required)")
	_ = cmd.MarkFlagRequired("chat")

	return cmd
}

func runAsk(opts *AskOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ex, err := a.Engine.Ask(cmd.Context(), opts.Chat, domain.Requester{})
	switch {
	case errors.Is(err, services.ErrTransport):
		return WrapExitError(ExitFailure, "question not sent", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "ask failed", err)
	}

	out := output{format: opts.Format, w: cmd.OutOrStdout()}
	return out.emit(ex, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "asked %s [%s] %q (key %s, %s)\n",
			ex.QuestionID, ex.Direction, ex.PromptText, ex.CorrelationKey, ex.AskedAt.Format(time.RFC3339))
		return err
	})
}
