// Command tutorbot runs the translation tutor bot.
//
// @title           Translation Tutor Bot API
// @version         1.0
// @description     Admin and evaluation endpoints of the translation tutor bot.
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tutor-bot/internal/cli"
	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/sysutil"
)

// version is stamped with -ldflags "-X main.version=...".
var version string

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(cli.ExitCommandError)
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := cli.NewRootCommand(&cli.RootOptions{Config: cfg, Version: sysutil.Version(version)})
	err = root.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("tutorbot")
		os.Exit(cli.GetExitCode(err))
	}
}
