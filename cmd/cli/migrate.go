package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/db"
	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/services"
)

func migrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy companies from one CRM portal to another",
		Long: `Read every company from the old portal and recreate or update it on the
new one, including requisites and bank details. Every action is also
recorded in a SQLite migration log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			oldURL, newURL, err := config.GetMigrationEndpoints()
			if err != nil {
				return err
			}

			database, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open migration log: %w", err)
			}
			defer database.Close()
			if err := database.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize migration log: %w", err)
			}

			migrator := services.NewMigrator(
				portalClient(cmd, oldURL),
				portalClient(cmd, newURL),
				database,
			)

			stats, err := migrator.Run(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Migration aborted")
				return err
			}

			report, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "migration.db", "Path to the SQLite migration log")
	return cmd
}
