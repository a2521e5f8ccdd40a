// Package main runs the swap gateway:
// - serve: HTTP API for quotes, swaps, balances, charts and exchange rates
// - migrate: apply PostgreSQL and ClickHouse migrations
// - fees: print collected platform fees for a fee account
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solana-swap-gateway/internal/config"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// cli holds state shared by subcommands.
type cli struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Defaults()}

	root := &cobra.Command{
		Use:          "gateway",
		Short:        "Solana token swap gateway",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Finalize(); err != nil {
				return err
			}
			logger, err := config.NewLogger(cmd.ErrOrStderr(), c.cfg.LogLevel, c.cfg.LogFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}
	config.BindFlags(root, c.cfg)

	root.AddCommand(newServeCmd(c), newMigrateCmd(c), newFeesCmd(c))
	return root
}
