// Package loader inserts normalized bundles into the database in foreign-key
// dependency order: location, then property, then HOA, valuations and rehab
// estimates. Each bundle is one transaction, so a failure loses exactly one
// source record; systemic database problems abort the whole run.
package loader

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propetl/config"
	"propetl/internal/models"
)

// errReferential should be unreachable: keys are assigned per bundle before
// load. If it fires, the pipeline's internal consistency is broken and the
// run aborts.
var errReferential = errors.New("dependent row references a key outside its own bundle")

type Loader struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *logrus.Logger
}

func New(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Loader {
	return &Loader{db: db, cfg: cfg, logger: logger}
}

// Load processes bundles sequentially in batches of the configured size and
// returns one outcome per bundle attempted. The returned error is non-nil
// only for systemic conditions that abort the run; per-bundle failures are
// recorded in their outcome and processing continues.
func (l *Loader) Load(bundles []*models.Bundle) ([]models.Outcome, error) {
	batchSize := l.cfg.Load.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	outcomes := make([]models.Outcome, 0, len(bundles))
	for start := 0; start < len(bundles); start += batchSize {
		end := start + batchSize
		if end > len(bundles) {
			end = len(bundles)
		}

		for _, bundle := range bundles[start:end] {
			outcome, err := l.loadBundle(bundle)
			outcomes = append(outcomes, outcome)
			if err != nil {
				return outcomes, err
			}
		}

		l.logger.WithFields(logrus.Fields{
			"batch_size": end - start,
			"processed":  end,
			"total":      len(bundles),
		}).Info("Batch processed")
	}
	return outcomes, nil
}

// loadBundle commits one bundle atomically, retrying transient failures a
// bounded number of times. The returned error is non-nil only when the run
// must stop.
func (l *Loader) loadBundle(bundle *models.Bundle) (models.Outcome, error) {
	outcome := models.Outcome{Source: bundle.Source, Warnings: bundle.Warnings}

	if err := checkReferences(bundle); err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	var err error
	for attempt := 0; attempt <= l.cfg.Load.MaxRetries; attempt++ {
		if attempt > 0 {
			l.logger.Infof("Retrying bundle %d, attempt %d of %d",
				bundle.Source.Index, attempt, l.cfg.Load.MaxRetries)
			time.Sleep(time.Duration(l.cfg.Load.RetryDelay) * time.Second)
		}

		err = l.db.Transaction(func(tx *gorm.DB) error {
			return l.insertBundle(tx, bundle)
		})
		if err == nil {
			outcome.Status = models.OutcomeLoaded
			if len(bundle.Warnings) > 0 {
				outcome.Status = models.OutcomeWithWarnings
			}
			outcome.Rows = countRows(bundle)
			return outcome, nil
		}
		if IsSystemic(err) {
			outcome.Status = models.OutcomeFailed
			outcome.Error = err.Error()
			return outcome, fmt.Errorf("systemic database failure: %w", err)
		}
		l.logger.WithError(err).WithFields(logrus.Fields{
			"record":  bundle.Source.Index,
			"mls":     bundle.Source.MLSNumber,
			"address": bundle.Source.Address,
		}).Error("Bundle transaction failed")
	}

	// Rolled back; only this bundle is lost.
	outcome.Status = models.OutcomeFailed
	outcome.Error = err.Error()
	l.logger.WithFields(logrus.Fields{
		"record":  bundle.Source.Index,
		"mls":     bundle.Source.MLSNumber,
		"address": bundle.Source.Address,
	}).Error("Bundle skipped after retries")
	return outcome, nil
}

// insertBundle writes one bundle's rows inside tx. When the bundle's natural
// key matches an already-loaded property, the property is updated in place
// and its dependent rows replaced, so reruns do not duplicate.
func (l *Loader) insertBundle(tx *gorm.DB, bundle *models.Bundle) error {
	existing, err := l.findExisting(tx, bundle)
	if err != nil {
		return err
	}
	if existing != nil {
		return l.replaceExisting(tx, bundle, existing)
	}

	if bundle.Location != nil {
		if err := tx.Create(bundle.Location).Error; err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}
	}
	if err := tx.Create(bundle.Property).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	if bundle.Hoa != nil {
		if err := tx.Create(bundle.Hoa).Error; err != nil {
			return fmt.Errorf("failed to insert hoa detail: %w", err)
		}
	}
	if len(bundle.Valuations) > 0 {
		if err := tx.Create(&bundle.Valuations).Error; err != nil {
			return fmt.Errorf("failed to insert valuations: %w", err)
		}
	}
	if len(bundle.RehabEstimates) > 0 {
		if err := tx.Create(&bundle.RehabEstimates).Error; err != nil {
			return fmt.Errorf("failed to insert rehab estimates: %w", err)
		}
	}
	return nil
}

// findExisting looks up a previously loaded property by natural key:
// MLS number first, then normalized address line + zip. Records with no
// natural key always load as new rows.
func (l *Loader) findExisting(tx *gorm.DB, bundle *models.Bundle) (*models.Property, error) {
	var existing models.Property

	if bundle.Property.MLSNumber != nil {
		err := tx.Where("mls_number = ?", *bundle.Property.MLSNumber).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if bundle.Location != nil && bundle.Location.AddressLine1 != nil && bundle.Location.ZipCode != nil {
		err := tx.
			Joins("JOIN property_locations pl ON pl.location_id = properties.location_id").
			Where("LOWER(pl.address_line_1) = ? AND pl.zip_code = ?",
				strings.ToLower(*bundle.Location.AddressLine1), *bundle.Location.ZipCode).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// replaceExisting adopts the existing property's surrogate key, updates the
// property and location rows in place, and replaces the dependent rows, all
// inside the bundle's transaction.
func (l *Loader) replaceExisting(tx *gorm.DB, bundle *models.Bundle, existing *models.Property) error {
	propertyID := existing.PropertyID

	if bundle.Location != nil {
		if existing.LocationID != nil {
			var current models.PropertyLocation
			if err := tx.First(&current, "location_id = ?", *existing.LocationID).Error; err != nil {
				return fmt.Errorf("failed to read existing location: %w", err)
			}
			bundle.Location.LocationID = current.LocationID
			bundle.Location.CreatedAt = current.CreatedAt
			if err := tx.Save(bundle.Location).Error; err != nil {
				return fmt.Errorf("failed to update location: %w", err)
			}
		} else if err := tx.Create(bundle.Location).Error; err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}
		bundle.Property.LocationID = &bundle.Location.LocationID
	} else {
		bundle.Property.LocationID = existing.LocationID
	}

	bundle.Property.PropertyID = propertyID
	bundle.Property.CreatedAt = existing.CreatedAt
	if err := tx.Save(bundle.Property).Error; err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	// Replace dependents wholesale; their surrogate keys are fresh.
	if err := tx.Where("property_id = ?", propertyID).Delete(&models.HoaDetail{}).Error; err != nil {
		return fmt.Errorf("failed to clear hoa details: %w", err)
	}
	if err := tx.Where("property_id = ?", propertyID).Delete(&models.PropertyValuation{}).Error; err != nil {
		return fmt.Errorf("failed to clear valuations: %w", err)
	}
	if err := tx.Where("property_id = ?", propertyID).Delete(&models.RehabEstimate{}).Error; err != nil {
		return fmt.Errorf("failed to clear rehab estimates: %w", err)
	}

	if bundle.Hoa != nil {
		bundle.Hoa.PropertyID = propertyID
		if err := tx.Create(bundle.Hoa).Error; err != nil {
			return fmt.Errorf("failed to insert hoa detail: %w", err)
		}
	}
	for i := range bundle.Valuations {
		bundle.Valuations[i].PropertyID = propertyID
	}
	if len(bundle.Valuations) > 0 {
		if err := tx.Create(&bundle.Valuations).Error; err != nil {
			return fmt.Errorf("failed to insert valuations: %w", err)
		}
	}
	for i := range bundle.RehabEstimates {
		bundle.RehabEstimates[i].PropertyID = propertyID
	}
	if len(bundle.RehabEstimates) > 0 {
		if err := tx.Create(&bundle.RehabEstimates).Error; err != nil {
			return fmt.Errorf("failed to insert rehab estimates: %w", err)
		}
	}
	return nil
}

// checkReferences verifies every dependent sub-record points at its own
// bundle's property key before anything touches the database.
func checkReferences(bundle *models.Bundle) error {
	propertyID := bundle.Property.PropertyID
	if propertyID == "" {
		return fmt.Errorf("%w: property has no key", errReferential)
	}
	if bundle.Location != nil &&
		(bundle.Property.LocationID == nil || *bundle.Property.LocationID != bundle.Location.LocationID) {
		return fmt.Errorf("%w: property does not reference its location", errReferential)
	}
	if bundle.Hoa != nil && bundle.Hoa.PropertyID != propertyID {
		return fmt.Errorf("%w: hoa detail", errReferential)
	}
	for _, v := range bundle.Valuations {
		if v.PropertyID != propertyID {
			return fmt.Errorf("%w: valuation", errReferential)
		}
	}
	for _, r := range bundle.RehabEstimates {
		if r.PropertyID != propertyID {
			return fmt.Errorf("%w: rehab estimate", errReferential)
		}
	}
	return nil
}

func countRows(bundle *models.Bundle) int {
	rows := 1
	if bundle.Location != nil {
		rows++
	}
	if bundle.Hoa != nil {
		rows++
	}
	return rows + len(bundle.Valuations) + len(bundle.RehabEstimates)
}

// IsSystemic reports whether an error indicates the database itself is
// unusable (lost connection, missing table or column) rather than a problem
// with one bundle's data.
func IsSystemic(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, gorm.ErrInvalidDB) || errors.Is(err, errReferential) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"no such table",
		"doesn't exist",
		"unknown column",
		"no such column",
		"connection refused",
		"database is closed",
		"bad connection",
		"broken pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
