package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"propetl/config"
	"propetl/internal/database"
	"propetl/internal/pipeline"
	"propetl/internal/validator"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Install the schema, transform and load the input, then validate",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner("SETUP")
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			if err := verifyPaths(cfg); err != nil {
				return err
			}
			maps, err := config.LoadFieldMaps(cfg.Paths.FieldMapFile)
			if err != nil {
				return err
			}
			fmt.Printf("input:     %s\n", cfg.Paths.InputFile)
			fmt.Printf("field map: %s (version %d)\n", cfg.Paths.FieldMapFile, maps.Version)

			banner("INSTALL")
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

			banner("TRANSFORM AND LOAD")
			summary, err := pipeline.New(cfg, maps, db, logger).Run()
			if err != nil {
				return err
			}
			fmt.Printf("records: %d  loaded: %d  with warnings: %d  failed: %d\n",
				summary.RecordsRead, summary.Loaded, summary.Warnings, summary.Failed)

			banner("VALIDATE")
			report, err := validator.New(db, logger).Run()
			if err != nil {
				return err
			}
			printReport(report)

			banner("COMPLETE")
			return nil
		},
	}
}

func printReport(report *validator.Report) {
	tables := make([]string, 0, len(report.Counts))
	for t := range report.Counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Printf("%-22s %d rows\n", t, report.Counts[t])
	}

	warnings := report.Warnings()
	if len(warnings) == 0 {
		fmt.Println("all validation checks passed")
		return
	}
	for _, f := range warnings {
		fmt.Printf("warning: %s: %d\n", f.Check, f.Count)
	}
}
