package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rl1809/giftpay/internal/adapter/storage"
)

func giftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gifts",
		Short: "List active gifts by price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			gifts, err := storage.NewMySQLAdapter(db, storage.RetryConfig{Attempts: 1}).ActiveGifts(commandContext(cmd))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDESCRIPTION")
			for _, g := range gifts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Name, g.Price.StringFixed(2), g.Description)
			}
			return tw.Flush()
		},
	}
}
