package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkarvinen/bdaymirror/internal/config"
	"github.com/pkarvinen/bdaymirror/internal/dateparse"
	"github.com/pkarvinen/bdaymirror/internal/roster"
)

// newRosterCmd groups the roster editing commands. Editing only works
// against the sqlite backend; CSV rosters are edited with whatever wrote
// them.
func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Inspect and edit the birthday roster",
	}

	cmd.AddCommand(newRosterListCmd())
	cmd.AddCommand(newRosterAddCmd())
	cmd.AddCommand(newRosterRemoveCmd())

	return cmd
}

// openRosterStore opens the configured sqlite store, rejecting other
// backends.
func openRosterStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*roster.Store, error) {
	if cfg.Roster.Backend != config.BackendSQLite {
		return nil, fmt.Errorf("roster editing requires the sqlite backend, config uses %q", cfg.Roster.Backend)
	}

	return roster.OpenStore(ctx, cfg.Roster.Path, logger)
}

func newRosterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roster entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openRosterStore(ctx, loadedCfg, buildLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			people, err := store.List(ctx)
			if err != nil {
				return err
			}

			if len(people) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Roster is empty.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBIRTHDAY")

			for _, p := range people {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, p.Birthday)
			}

			return tw.Flush()
		},
	}
}

func newRosterAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME BIRTHDAY",
		Short: "Add a roster entry",
		Long: `Add a person to the roster. BIRTHDAY accepts day-first dates with "/"
or "-" separators: 24/12/1990, 24-12, 24/12. When the year is omitted the
current year is stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, birthday := args[0], args[1]

			// Validate up front so bad dates are caught at entry time
			// instead of being silently skipped at every reconcile.
			if _, err := dateparse.Parse(birthday, time.Now); err != nil {
				return fmt.Errorf("birthday %q: %w", birthday, err)
			}

			store, err := openRosterStore(ctx, loadedCfg, buildLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.Add(ctx, name, birthday)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) with id %d\n", name, birthday, id)

			return nil
		},
	}
}

func newRosterRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a roster entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id %q is not a number", args[0])
			}

			store, err := openRosterStore(ctx, loadedCfg, buildLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Remove(ctx, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no roster entry with id %d", id)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %d\n", id)

			return nil
		},
	}
}
