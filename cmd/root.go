package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/botmakerspc/Stars-magnat-bota/config"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Execute runs the starsbot command tree
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the CLI. Running it without a subcommand starts the bot.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "starsbot",
		Short:         "Stars referral tournaments and ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(config.Get())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newTournamentCommand(),
		newReferralCommand(),
		newLedgerCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot, scheduler, NATS consumers and admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// printf writes command output to stdout so it can be piped
func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// pageSize falls back for non-positive limits and caps the rest
func pageSize(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, service.MaxLeaderboardLimit)
}
