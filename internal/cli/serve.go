package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-tutor-bot/internal/config"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Mode string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and its HTTP server",
		Long: `Run the bot until interrupted.

In polling mode updates are fetched with getUpdates. In webhook mode Telegram
posts them to /webhook/{WEBHOOK_SECRET}; setWebhook is called when WEBHOOK_URL
is set.

Examples:
  tutorbot serve
  tutorbot serve --mode webhook`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "update source (polling|webhook); overrides MODE")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	if opts.Mode != "" {
		cfg.Bot.Mode = opts.Mode
	}
	switch cfg.Bot.Mode {
	case config.ModePolling:
	case config.ModeWebhook:
		if cfg.Bot.WebhookSecret == "" {
			return NewExitError(ExitCommandError, "WEBHOOK_SECRET is required in webhook mode")
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be polling or webhook", cfg.Bot.Mode))
	}

	ro := *opts.RootOptions
	ro.Config = cfg
	a, err := openApp(cmd.Context(), &ro, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(cmd.Context())
}
