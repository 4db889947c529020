package cli

import (
	"github.com/spf13/cobra"

	"propetl/internal/database"
	"propetl/internal/validator"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the post-load validation checks against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner("VALIDATE")
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
			report, err := validator.New(db, logger).Run()
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}
