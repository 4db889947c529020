// Package validator runs the post-load check battery: row counts, orphan
// detection, range and business-rule checks, and a data summary. It only
// reads; findings are advisory and never roll back committed data.
package validator

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propetl/internal/models"
)

type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
)

// Finding is one check's result: how many rows violated it, if any.
type Finding struct {
	Check    string   `json:"check"`
	Count    int64    `json:"count"`
	Severity Severity `json:"severity"`
}

// Report is the full validation output.
type Report struct {
	Counts      map[string]int64 `json:"counts"`
	Findings    []Finding        `json:"findings"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Warnings returns only the findings with violations.
func (r *Report) Warnings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

type Validator struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func New(db *gorm.DB, logger *logrus.Logger) *Validator {
	return &Validator{db: db, logger: logger}
}

// check pairs a finding name with the query counting its violations.
type check struct {
	name  string
	query string
	args  []any
}

// Run executes every check and returns the report. It fails only when the
// database itself cannot be queried.
func (v *Validator) Run() (*Report, error) {
	report := &Report{
		Counts:      make(map[string]int64),
		GeneratedAt: time.Now(),
	}

	for _, table := range []string{
		"property_locations", "properties", "hoa_details",
		"property_valuations", "rehab_estimates",
	} {
		var n int64
		if err := v.db.Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		report.Counts[table] = n
		v.logger.WithFields(logrus.Fields{"table": table, "rows": n}).Info("Row count")
	}

	currentYear := time.Now().Year()
	knownValuationTypes := []string{
		string(models.ValuationMarket), string(models.ValuationAssessed),
		string(models.ValuationARV), string(models.ValuationList), string(models.ValuationSale),
	}
	knownEstimateTypes := []string{
		string(models.EstimateFullRehab), string(models.EstimateRepair),
		string(models.EstimateCosmetic), string(models.EstimateStructural),
	}
	knownEstimateStatuses := []string{
		string(models.EstimateStatusDraft), string(models.EstimateStatusSubmitted),
		string(models.EstimateStatusApproved), string(models.EstimateStatusRejected),
		string(models.EstimateStatusCompleted),
	}

	checks := []check{
		// referential integrity
		{name: "properties referencing a missing location", query: `
			SELECT COUNT(*) FROM properties p
			LEFT JOIN property_locations l ON p.location_id = l.location_id
			WHERE p.location_id IS NOT NULL AND l.location_id IS NULL`},
		{name: "hoa details without a property", query: `
			SELECT COUNT(*) FROM hoa_details h
			LEFT JOIN properties p ON h.property_id = p.property_id
			WHERE p.property_id IS NULL`},
		{name: "valuations without a property", query: `
			SELECT COUNT(*) FROM property_valuations pv
			LEFT JOIN properties p ON pv.property_id = p.property_id
			WHERE p.property_id IS NULL`},
		{name: "rehab estimates without a property", query: `
			SELECT COUNT(*) FROM rehab_estimates re
			LEFT JOIN properties p ON re.property_id = p.property_id
			WHERE p.property_id IS NULL`},

		// data quality
		{name: "properties missing core fields", query: `
			SELECT COUNT(*) FROM properties
			WHERE property_type IS NULL OR bedrooms IS NULL OR bathrooms IS NULL`},
		{name: "locations missing address fields", query: `
			SELECT COUNT(*) FROM property_locations
			WHERE address_line_1 IS NULL OR city IS NULL OR state IS NULL`},
		{name: "valuations with non-positive amounts", query: `
			SELECT COUNT(*) FROM property_valuations WHERE valuation_amount <= 0`},
		{name: "properties with implausible year built",
			query: `SELECT COUNT(*) FROM properties WHERE year_built < 1800 OR year_built > ?`,
			args:  []any{currentYear}},
		{name: "properties with negative square footage", query: `
			SELECT COUNT(*) FROM properties WHERE square_footage < 0`},
		{name: "properties with negative lot size", query: `
			SELECT COUNT(*) FROM properties WHERE lot_size < 0`},
		{name: "properties with negative bedrooms or bathrooms", query: `
			SELECT COUNT(*) FROM properties WHERE bedrooms < 0 OR bathrooms < 0`},
		{name: "hoa details with negative fees", query: `
			SELECT COUNT(*) FROM hoa_details WHERE monthly_fee < 0 OR annual_fee < 0`},
		{name: "rehab estimates with negative costs", query: `
			SELECT COUNT(*) FROM rehab_estimates
			WHERE estimated_cost < 0 OR materials_cost < 0 OR labor_cost < 0 OR permit_cost < 0`},

		// business rules
		{name: "properties with more than 20 bedrooms", query: `
			SELECT COUNT(*) FROM properties WHERE bedrooms > 20`},
		{name: "properties with more than 15 bathrooms", query: `
			SELECT COUNT(*) FROM properties WHERE bathrooms > 15`},
		{name: "properties with square footage over 50000", query: `
			SELECT COUNT(*) FROM properties WHERE square_footage > 50000`},
		{name: "hoa monthly fees over 5000", query: `
			SELECT COUNT(*) FROM hoa_details WHERE monthly_fee > 5000`},
		{name: "valuations over 50 million", query: `
			SELECT COUNT(*) FROM property_valuations WHERE valuation_amount > 50000000`},

		// enumerations: unrecognized values are stored but flagged
		{name: "valuations with unrecognized type",
			query: `SELECT COUNT(*) FROM property_valuations WHERE valuation_type NOT IN ?`,
			args:  []any{knownValuationTypes}},
		{name: "rehab estimates with unrecognized type",
			query: `SELECT COUNT(*) FROM rehab_estimates WHERE estimate_type NOT IN ?`,
			args:  []any{knownEstimateTypes}},
		{name: "rehab estimates with unrecognized status",
			query: `SELECT COUNT(*) FROM rehab_estimates WHERE status NOT IN ?`,
			args:  []any{knownEstimateStatuses}},
	}

	for _, c := range checks {
		var n int64
		if err := v.db.Raw(c.query, c.args...).Scan(&n).Error; err != nil {
			return nil, fmt.Errorf("check %q failed: %w", c.name, err)
		}
		severity := SeverityOK
		if n > 0 {
			severity = SeverityWarning
			v.logger.WithFields(logrus.Fields{"check": c.name, "rows": n}).Warn("Validation finding")
		} else {
			v.logger.WithField("check", c.name).Info("Validation check passed")
		}
		report.Findings = append(report.Findings, Finding{Check: c.name, Count: n, Severity: severity})
	}

	v.logSummary()
	return report, nil
}

// logSummary writes the descriptive report the run log carries alongside
// the checks: property mix and average market values.
func (v *Validator) logSummary() {
	type labelCount struct {
		Label string
		N     int64
	}

	var byType []labelCount
	err := v.db.Raw(`
		SELECT property_type AS label, COUNT(*) AS n FROM properties
		WHERE property_type IS NOT NULL
		GROUP BY property_type ORDER BY n DESC`).Scan(&byType).Error
	if err != nil {
		v.logger.WithError(err).Error("Failed to summarize properties by type")
	}
	for _, row := range byType {
		v.logger.WithFields(logrus.Fields{"property_type": row.Label, "count": row.N}).Info("Properties by type")
	}

	var byState []labelCount
	err = v.db.Raw(`
		SELECT l.state AS label, COUNT(*) AS n FROM properties p
		JOIN property_locations l ON p.location_id = l.location_id
		WHERE l.state IS NOT NULL
		GROUP BY l.state ORDER BY n DESC`).Scan(&byState).Error
	if err != nil {
		v.logger.WithError(err).Error("Failed to summarize properties by state")
	}
	for _, row := range byState {
		v.logger.WithFields(logrus.Fields{"state": row.Label, "count": row.N}).Info("Properties by state")
	}

	type typeValue struct {
		Label string
		Avg   float64
	}
	var avgValues []typeValue
	err = v.db.Raw(`
		SELECT p.property_type AS label, AVG(pv.valuation_amount) AS avg
		FROM properties p
		JOIN property_valuations pv ON p.property_id = pv.property_id
		WHERE p.property_type IS NOT NULL AND pv.valuation_type = 'market'
		GROUP BY p.property_type ORDER BY avg DESC`).Scan(&avgValues).Error
	if err != nil {
		v.logger.WithError(err).Error("Failed to summarize market values by type")
	}
	for _, row := range avgValues {
		v.logger.WithFields(logrus.Fields{"property_type": row.Label, "avg_market_value": row.Avg}).Info("Average market value")
	}
}
