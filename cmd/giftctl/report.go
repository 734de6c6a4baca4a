package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rl1809/giftpay/internal/adapter/storage"
	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/core/service"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transaction totals, turnover and fee revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			reports := service.NewReportService(storage.NewMySQLAdapter(db, storage.RetryConfig{Attempts: 1}))
			summary, err := reports.Summary(commandContext(cmd))
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			asJSON, _ := cmd.Flags().GetBool("json")

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			reports := service.NewReportService(storage.NewMySQLAdapter(db, storage.RetryConfig{Attempts: 1}))
			var txs []domain.Transaction
			if userID > 0 {
				txs, err = reports.UserTransactions(commandContext(cmd), userID)
			} else {
				txs, err = reports.Transactions(commandContext(cmd))
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(txs)
			}
			printTransactions(cmd.OutOrStdout(), txs)
			return nil
		},
	}

	cmd.Flags().Int64P("user", "u", 0, "only show this buyer's transactions")
	cmd.Flags().BoolP("json", "j", false, "output as JSON")

	return cmd
}

func printSummary(w io.Writer, s domain.Summary) {
	fmt.Fprintln(w, "Transactions")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "  Total:       %d\n", s.Total)
	fmt.Fprintf(w, "  Pending:     %d\n", s.Pending)
	fmt.Fprintf(w, "  Successful:  %d\n", s.Paid)
	fmt.Fprintf(w, "  Failed:      %d\n", s.Failed)
	fmt.Fprintln(w, "\nMoney:")
	fmt.Fprintf(w, "  Turnover:    %s\n", s.Gross.StringFixed(2))
	fmt.Fprintf(w, "  Fees:        %s\n", s.Fee.StringFixed(2))
	fmt.Fprintf(w, "  Paid:        %s\n", s.PaidGross.StringFixed(2))
	fmt.Fprintf(w, "  Paid fees:   %s\n", s.PaidFee.StringFixed(2))
}

func printTransactions(w io.Writer, txs []domain.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "no transactions")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tBUYER\tGIFT\tGROSS\tFEE\tSTATUS\tCREATED")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.OrderRef, tx.BuyerID, tx.ItemName,
			tx.Gross.StringFixed(2), tx.Fee.StringFixed(2),
			tx.Status, tx.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}
