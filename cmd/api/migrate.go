package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/medrecords-api/internal/repository/migrate"
	"github.com/jwalitptl/medrecords-api/internal/repository/sqlstore"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
			for _, s := range status {
				appliedAt := "pending"
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%03d\t%s\t%s\n", s.Version, s.Name, appliedAt)
			}
			return w.Flush()
		},
	})

	return cmd
}

func openMigrator(cmd *cobra.Command) (*migrate.Migrator, func(), error) {
	cfg, _, err := load()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlstore.NewDB(cmd.Context(), sqlstore.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return migrate.NewMigrator(db), func() { db.Close() }, nil
}
