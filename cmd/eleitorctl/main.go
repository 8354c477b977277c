// Command eleitorctl runs the voter import pipeline from the command line:
// previewing spreadsheets, importing them without the web UI and managing
// the eleitores schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eleitores/internal/config"
	"github.com/JonMunkholm/eleitores/internal/logging"
	"github.com/JonMunkholm/eleitores/internal/store"
)

// dbTimeout bounds schema and maintenance operations.
const dbTimeout = 30 * time.Second

type rootOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "eleitorctl",
		Short:         "Voter bulk import tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside development.
			_ = godotenv.Load()
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newPreviewCmd(), newImportCmd(), newDBCmd())
	return cmd
}

// openStore loads the configuration and connects to the database.
// The caller must close the returned pool.
func openStore(ctx context.Context) (*config.Config, *pgxpool.Pool, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return cfg, pool, store.New(pool), nil
}

var errNotConfirmed = errors.New("refusing to reset without --yes")
