package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"propetl/internal/models"
)

// SchemaVersion is bumped whenever the table contract changes.
const SchemaVersion = 1

type schemaInfo struct {
	ID          int       `gorm:"primaryKey"`
	Version     int       `gorm:"column:version"`
	InstalledAt time.Time `gorm:"column:installed_at"`
}

func (schemaInfo) TableName() string { return "schema_info" }

// propertySummaryView joins each property with its location, HOA terms,
// most recent market valuation and most recent approved rehab estimate.
const propertySummaryView = `
CREATE VIEW property_summary AS
SELECT
    p.property_id,
    p.property_type,
    p.bedrooms,
    p.bathrooms,
    p.square_footage,
    p.year_built,
    p.listing_status,
    p.mls_number,
    l.address_line_1,
    l.city,
    l.state,
    l.zip_code,
    h.hoa_name,
    h.monthly_fee AS hoa_monthly_fee,
    (SELECT pv.valuation_amount FROM property_valuations pv
     WHERE pv.property_id = p.property_id AND pv.valuation_type = 'market'
     ORDER BY pv.valuation_date DESC LIMIT 1) AS current_market_value,
    (SELECT re.estimated_cost FROM rehab_estimates re
     WHERE re.property_id = p.property_id AND re.status = 'approved'
     ORDER BY re.estimate_date DESC LIMIT 1) AS approved_rehab_cost
FROM properties p
LEFT JOIN property_locations l ON p.location_id = l.location_id
LEFT JOIN hoa_details h ON h.property_id = p.property_id`

// InstallSchema creates the five entity tables with their primary keys,
// foreign keys and indexes, the property_summary view, and records the
// schema version. Safe to run against an already-installed database.
func InstallSchema(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.PropertyLocation{},
		&models.Property{},
		&models.HoaDetail{},
		&models.PropertyValuation{},
		&models.RehabEstimate{},
		&schemaInfo{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.Exec("DROP VIEW IF EXISTS property_summary").Error; err != nil {
		return fmt.Errorf("failed to drop property_summary view: %w", err)
	}
	if err := db.Exec(propertySummaryView).Error; err != nil {
		return fmt.Errorf("failed to create property_summary view: %w", err)
	}

	info := schemaInfo{ID: 1, Version: SchemaVersion, InstalledAt: time.Now()}
	if err := db.Save(&info).Error; err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
