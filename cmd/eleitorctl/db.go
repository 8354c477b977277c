package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the eleitores schema",
	}
	cmd.AddCommand(newMigrateCmd(), newResetCmd(), newCountCmd())
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the eleitores table and indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
			defer cancel()

			_, pool, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := st.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored voter (destructive)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
			defer cancel()

			_, pool, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			before, err := st.Count(ctx)
			if err != nil {
				return err
			}
			if err := st.Reset(ctx); err != nil {
				return err
			}

			slog.Warn("eleitores table reset", "removed", before)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", before)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored voters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
			defer cancel()

			_, pool, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := st.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
