package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/domain"
)

func newFeesCmd(c *cli) *cobra.Command {
	var feeAccount string

	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Print collected platform fees per token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := address.Validate(feeAccount)
			if err != nil {
				return fmt.Errorf("--fee-account: %w", err)
			}

			st, cleanup, err := createStores(cmd.Context(), c.cfg, false, c.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := st.ledger.Stats(cmd.Context(), account)
			if err != nil {
				return err
			}
			return printFeeStats(cmd, account, stats)
		},
	}
	cmd.Flags().StringVar(&feeAccount, "fee-account", "", "Fee wallet to report on")
	_ = cmd.MarkFlagRequired("fee-account")
	return cmd
}

func printFeeStats(cmd *cobra.Command, feeAccount string, stats []domain.FeeStat) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "fee account: %s\n\n", feeAccount)
	fmt.Fprintln(w, "TOKEN MINT\tTOTAL FEES\tSWAPS")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\n", s.TokenMint, s.TotalFees, s.Count)
	}
	return w.Flush()
}
