package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/giftpay/internal/adapter/storage"
	"github.com/rl1809/giftpay/internal/config"
	"github.com/rl1809/giftpay/internal/port"
)

const cacheTimeout = 5 * time.Second

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed the gift catalog",
		Long: `Create the transactions and gifts tables if they are missing.

The gift catalog is seeded only when the gifts table is empty, so the
command is safe to run on every deploy. The cached catalog in Redis is
dropped afterwards so the service serves the seeded rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := commandContext(cmd)
			if err := storage.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")

			rcfg, err := config.LoadRedis()
			if err != nil {
				return err
			}
			rdb := redis.NewClient(&redis.Options{
				Addr:     rcfg.Addr,
				Password: rcfg.Password,
				DB:       rcfg.DB,
			})
			defer rdb.Close()

			invalidateCatalog(ctx, storage.NewRedisAdapter(rdb, 0), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
}

// invalidateCatalog never fails the migration: the service falls back to
// MySQL while Redis is down and a stale entry expires with its TTL.
func invalidateCatalog(ctx context.Context, cache port.CacheRepository, out, errOut io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	if err := cache.InvalidateGifts(ctx); err != nil {
		fmt.Fprintf(errOut, "warning: catalog cache not cleared: %v\n", err)
		return
	}
	fmt.Fprintln(out, "catalog cache cleared")
}
