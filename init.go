package main

import (
	"fmt"
	"os"
	"path/filepath"

	ical "github.com/arran4/golang-ical"
	"github.com/spf13/cobra"
)

// newInitCmd builds the first-run scaffolding command. Reconciliation
// deliberately refuses to create the destination calendar itself (a
// misconfigured id must abort, not spawn a fresh calendar), so init is
// where the calendar file comes from.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory, roster database, and calendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if err := os.MkdirAll(loadedCfg.Calendar.Dir, 0o755); err != nil {
				return fmt.Errorf("creating calendar directory: %w", err)
			}

			calPath := filepath.Join(loadedCfg.Calendar.Dir, loadedCfg.Calendar.ID+".ics")
			if _, err := os.Stat(calPath); os.IsNotExist(err) {
				empty := ical.NewCalendar()
				empty.SetMethod(ical.MethodPublish)

				if err := os.WriteFile(calPath, []byte(empty.Serialize()), 0o644); err != nil {
					return fmt.Errorf("creating calendar %s: %w", calPath, err)
				}

				fmt.Fprintf(out, "Created calendar %s\n", calPath)
			} else if err == nil {
				fmt.Fprintf(out, "Calendar %s already exists\n", calPath)
			} else {
				return fmt.Errorf("checking calendar %s: %w", calPath, err)
			}

			if err := os.MkdirAll(filepath.Dir(loadedCfg.Roster.Path), 0o755); err != nil {
				return fmt.Errorf("creating roster directory: %w", err)
			}

			// The sqlite store creates its database file and schema on
			// open; CSV rosters come from elsewhere.
			src, cleanup, err := newSource(ctx, loadedCfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := src.Rows(ctx); err != nil {
				fmt.Fprintf(out, "Roster at %s is not readable yet: %v\n", loadedCfg.Roster.Path, err)
			} else {
				fmt.Fprintf(out, "Roster ready at %s\n", loadedCfg.Roster.Path)
			}

			return nil
		},
	}
}
