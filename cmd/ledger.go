package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newLedgerCommand() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and adjust account balances",
	}

	var reason string
	credit := &cobra.Command{
		Use:   "credit ACCOUNT_ID AMOUNT",
		Short: "Apply a manual balance adjustment (negative amounts debit)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return err
			}

			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				account, err := ops.AdjustBalance(cmd.Context(), accountID, amount, reason)
				if err != nil {
					return err
				}
				printf(cmd, "Account %d balance: %s\n", account.AccountID, account.Balance.StringFixed(2))
				return nil
			})
		},
	}
	credit.Flags().StringVar(&reason, "reason", "manual adjustment", "reason recorded in balance history")

	balance := &cobra.Command{
		Use:   "balance ACCOUNT_ID",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				balance, err := ops.GetBalance(cmd.Context(), accountID)
				if err != nil {
					return err
				}
				printf(cmd, "Account %d balance: %s\n", accountID, balance.StringFixed(2))
				return nil
			})
		},
	}

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "List the accounts with the highest balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(cmd.Context(), func(ops *application.Operations) error {
				accounts, err := ops.TopAccounts(cmd.Context(), pageSize(limit, 3))
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RANK\tACCOUNT\tNAME\tBALANCE")
				for idx, a := range accounts {
					fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", idx+1, a.AccountID, a.DisplayName, a.Balance.StringFixed(2))
				}
				return w.Flush()
			})
		},
	}
	top.Flags().IntVar(&limit, "limit", 3, fmt.Sprintf("number of rows (at most %d)", service.MaxTopAccounts))

	ledgerCmd.AddCommand(credit, balance, top)
	return ledgerCmd
}
