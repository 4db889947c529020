package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"propetl/internal/database"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create the database schema and summary view without loading data",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner("INSTALL")
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(db); err != nil {
					logger.WithError(err).Error("Failed to close database")
				}
			}()
			if err := database.InstallSchema(db); err != nil {
				return err
			}
			fmt.Printf("schema version %d installed\n", database.SchemaVersion)
			return nil
		},
	}
}
