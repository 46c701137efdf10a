// Package cli implements the tutorbot command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-tutor-bot/internal/app"
	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/services"
)

// RootOptions holds global flags and the loaded configuration.
type RootOptions struct {
	Config  config.Config
	Version string
	Format  string // "json" | "text"

	// Transport replaces the Telegram client for every command.
	Transport services.Transport
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tutorbot",
		Short:   "Translation tutor bot",
		Long:    "A Telegram bot that sends sentences to translate and pairs each reply with the question it answers.",
		Version: opts.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

var errOffline = errors.New("command does not send messages")

// offline stands in for the chat transport in commands that only touch storage.
type offline struct{}

func (offline) Send(context.Context, string, string, domain.SendOptions) (string, error) {
	return "", errOffline
}

// openApp assembles the bot. Offline commands skip Telegram authentication.
func openApp(ctx context.Context, opts *RootOptions, online bool) (*app.App, error) {
	o := app.Options{Version: opts.Version, Transport: opts.Transport}
	if o.Transport == nil && !online {
		o.Transport = offline{}
	}
	a, err := app.New(ctx, opts.Config, o)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to start", err)
	}
	return a, nil
}
