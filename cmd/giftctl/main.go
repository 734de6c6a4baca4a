package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/giftpay/internal/app"
	"github.com/rl1809/giftpay/internal/config"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "giftctl",
		Short:   "giftctl - admin tool for the gift payment service",
		Version: Version,
	}

	rootCmd.PersistentFlags().String("dsn", "", "MySQL DSN (defaults to MYSQL_DSN)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log connection attempts")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(giftsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(cmd *cobra.Command) (*sql.DB, error) {
	cfg, err := config.LoadMySQL()
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.DSN = dsn
	}

	var out io.Writer = io.Discard
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		out = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return app.OpenMySQL(cfg, log)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
