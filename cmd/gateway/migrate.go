package main

import (
	"errors"

	"github.com/spf13/cobra"

	"solana-swap-gateway/internal/storage/migrations"
	pgstore "solana-swap-gateway/internal/storage/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.UseMemory || c.cfg.PostgresDSN == "" {
				return errors.New("migrate requires --postgres-dsn")
			}

			pool, err := pgstore.NewPool(ctx, c.cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return err
			}
			c.logger.WithField("applied", applied).Info("postgres migrations done")

			if c.cfg.ClickhouseDSN == "" {
				return nil
			}
			conn, err := migrations.RunClickhouseMigrations(ctx, c.cfg.ClickhouseDSN)
			if err != nil {
				return err
			}
			c.logger.Info("clickhouse migrations done")
			return conn.Close()
		},
	}
}
