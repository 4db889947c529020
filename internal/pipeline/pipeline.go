// Package pipeline sequences the transform/load phase: extract the raw
// records, normalize each into a bundle, and hand the bundles to the loader.
// Processing is strictly sequential; the validator runs as a separate phase
// once loading has fully completed.
package pipeline

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propetl/config"
	"propetl/internal/extract"
	"propetl/internal/loader"
	"propetl/internal/models"
	"propetl/internal/normalizer"
)

// Summary tallies the per-bundle outcomes of one run.
type Summary struct {
	RecordsRead int
	Loaded      int
	Warnings    int
	Failed      int
	Outcomes    []models.Outcome
}

type Pipeline struct {
	cfg    *config.Config
	maps   *config.FieldMaps
	db     *gorm.DB
	logger *logrus.Logger
}

func New(cfg *config.Config, maps *config.FieldMaps, db *gorm.DB, logger *logrus.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, maps: maps, db: db, logger: logger}
}

// Run executes extract, transform and load. It returns a summary of every
// bundle attempted; the error is non-nil only for fatal conditions (bad
// input file, systemic database failure).
func (p *Pipeline) Run() (*Summary, error) {
	records, err := extract.Records(p.cfg.Paths.InputFile)
	if err != nil {
		return nil, err
	}
	p.logger.WithField("records", len(records)).Info("Extracted input records")

	norm := normalizer.New(p.maps, p.logger)
	bundles := make([]*models.Bundle, len(records))
	for i, record := range records {
		bundles[i] = norm.Normalize(i, record)
	}

	outcomes, loadErr := loader.New(p.db, p.cfg, p.logger).Load(bundles)

	summary := &Summary{RecordsRead: len(records), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case models.OutcomeLoaded:
			summary.Loaded++
		case models.OutcomeWithWarnings:
			summary.Loaded++
			summary.Warnings++
		case models.OutcomeFailed:
			summary.Failed++
		}
	}

	p.logger.WithFields(logrus.Fields{
		"records": summary.RecordsRead,
		"loaded":  summary.Loaded,
		"warned":  summary.Warnings,
		"failed":  summary.Failed,
	}).Info("Transform and load phase finished")

	return summary, loadErr
}
