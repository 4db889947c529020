// Package cli defines the cobra command tree for the property ETL runner.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"propetl/config"
	"propetl/internal/logging"
)

var (
	flagInput    string
	flagFieldMap string
	flagLogDir   string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "etl",
		Short:         "Normalize raw property records into a relational database",
		Long:          "Reads a flat JSON document of heterogeneous property records, normalizes it into locations, properties, HOA details, valuations and rehab estimates, loads them transactionally, and validates the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagInput, "input", "", "input JSON file (overrides ETL_INPUT_FILE)")
	root.PersistentFlags().StringVar(&flagFieldMap, "field-map", "", "field mapping YAML (overrides ETL_FIELD_MAP)")
	root.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "run log directory (overrides ETL_LOG_DIR)")

	root.AddCommand(
		newRunCmd(),
		newInstallCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	return root
}

// loadRuntime builds the run configuration (env plus flag overrides) and
// the logger writing to the run log directory.
func loadRuntime() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagInput != "" {
		cfg.Paths.InputFile = flagInput
	}
	if flagFieldMap != "" {
		cfg.Paths.FieldMapFile = flagFieldMap
	}
	if flagLogDir != "" {
		cfg.Paths.LogDir = flagLogDir
	}

	logger, err := logging.New(cfg.Paths.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// verifyPaths checks the working files exist before any phase starts.
func verifyPaths(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Paths.InputFile); err != nil {
		return fmt.Errorf("input file not found: %s", cfg.Paths.InputFile)
	}
	if _, err := os.Stat(cfg.Paths.FieldMapFile); err != nil {
		return fmt.Errorf("field mapping file not found: %s", cfg.Paths.FieldMapFile)
	}
	return nil
}

// banner prints a human-readable stage marker on stdout.
func banner(stage string) {
	fmt.Printf("\n========== %s ==========\n", stage)
}
