package validator

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"propetl/internal/database"
	"propetl/internal/models"
)

// openTestDB opens without foreign key enforcement so orphan rows can be
// seeded directly.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open("file:"+path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.InstallSchema(db))
	return db
}

func newTestValidator(t *testing.T, db *gorm.DB) *Validator {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(db, logger)
}

func ptr[T any](v T) *T { return &v }

func seedProperty(t *testing.T, db *gorm.DB) *models.Property {
	t.Helper()
	loc := &models.PropertyLocation{
		LocationID:   uuid.NewString(),
		AddressLine1: ptr("123 Main St"),
		City:         ptr("Austin"),
		State:        ptr("TX"),
		ZipCode:      ptr("78701"),
	}
	require.NoError(t, db.Create(loc).Error)
	p := &models.Property{
		PropertyID:    uuid.NewString(),
		LocationID:    &loc.LocationID,
		PropertyType:  ptr("single_family"),
		Bedrooms:      ptr(3),
		Bathrooms:     ptr(2.0),
		SquareFootage: ptr(1850),
		YearBuilt:     ptr(1995),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func findingCount(t *testing.T, report *Report, name string) int64 {
	t.Helper()
	for _, f := range report.Findings {
		if f.Check == name {
			return f.Count
		}
	}
	t.Fatalf("finding %q not in report", name)
	return 0
}

func TestRun_CleanDatabasePasses(t *testing.T) {
	db := openTestDB(t)
	p := seedProperty(t, db)
	require.NoError(t, db.Create(&models.PropertyValuation{
		ValuationID:     uuid.NewString(),
		PropertyID:      p.PropertyID,
		ValuationType:   "market",
		ValuationAmount: ptr(450000.0),
	}).Error)

	report, err := newTestValidator(t, db).Run()
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.Counts["properties"])
	assert.EqualValues(t, 1, report.Counts["property_locations"])
	assert.EqualValues(t, 1, report.Counts["property_valuations"])
	assert.Empty(t, report.Warnings())
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestRun_DetectsOrphans(t *testing.T) {
	db := openTestDB(t)
	seedProperty(t, db)

	missing := uuid.NewString()
	require.NoError(t, db.Create(&models.Property{
		PropertyID: uuid.NewString(),
		LocationID: &missing,
	}).Error)
	require.NoError(t, db.Create(&models.HoaDetail{
		HoaID:      uuid.NewString(),
		PropertyID: uuid.NewString(),
	}).Error)
	require.NoError(t, db.Create(&models.PropertyValuation{
		ValuationID:   uuid.NewString(),
		PropertyID:    uuid.NewString(),
		ValuationType: "market",
	}).Error)
	require.NoError(t, db.Create(&models.RehabEstimate{
		EstimateID:   uuid.NewString(),
		PropertyID:   uuid.NewString(),
		EstimateType: "repair",
		Status:       "draft",
	}).Error)

	report, err := newTestValidator(t, db).Run()
	require.NoError(t, err)

	assert.EqualValues(t, 1, findingCount(t, report, "properties referencing a missing location"))
	assert.EqualValues(t, 1, findingCount(t, report, "hoa details without a property"))
	assert.EqualValues(t, 1, findingCount(t, report, "valuations without a property"))
	assert.EqualValues(t, 1, findingCount(t, report, "rehab estimates without a property"))
	assert.NotEmpty(t, report.Warnings())
}

func TestRun_FlagsRangeViolations(t *testing.T) {
	db := openTestDB(t)
	p := seedProperty(t, db)

	require.NoError(t, db.Create(&models.Property{
		PropertyID:    uuid.NewString(),
		PropertyType:  ptr("condo"),
		Bedrooms:      ptr(-1),
		Bathrooms:     ptr(1.0),
		SquareFootage: ptr(-200),
		YearBuilt:     ptr(1492),
	}).Error)
	require.NoError(t, db.Create(&models.PropertyValuation{
		ValuationID:     uuid.NewString(),
		PropertyID:      p.PropertyID,
		ValuationType:   "market",
		ValuationAmount: ptr(-5000.0),
	}).Error)

	report, err := newTestValidator(t, db).Run()
	require.NoError(t, err)

	assert.EqualValues(t, 1, findingCount(t, report, "properties with negative square footage"))
	assert.EqualValues(t, 1, findingCount(t, report, "properties with negative bedrooms or bathrooms"))
	assert.EqualValues(t, 1, findingCount(t, report, "properties with implausible year built"))
	assert.EqualValues(t, 1, findingCount(t, report, "valuations with non-positive amounts"))
}

func TestRun_FlagsBusinessRuleViolations(t *testing.T) {
	db := openTestDB(t)
	p := seedProperty(t, db)

	require.NoError(t, db.Create(&models.Property{
		PropertyID:    uuid.NewString(),
		PropertyType:  ptr("multi_family"),
		Bedrooms:      ptr(25),
		Bathrooms:     ptr(18.0),
		SquareFootage: ptr(60000),
	}).Error)
	require.NoError(t, db.Create(&models.HoaDetail{
		HoaID:      uuid.NewString(),
		PropertyID: p.PropertyID,
		MonthlyFee: ptr(7500.0),
	}).Error)
	require.NoError(t, db.Create(&models.PropertyValuation{
		ValuationID:     uuid.NewString(),
		PropertyID:      p.PropertyID,
		ValuationType:   "market",
		ValuationAmount: ptr(75000000.0),
	}).Error)

	report, err := newTestValidator(t, db).Run()
	require.NoError(t, err)

	assert.EqualValues(t, 1, findingCount(t, report, "properties with more than 20 bedrooms"))
	assert.EqualValues(t, 1, findingCount(t, report, "properties with more than 15 bathrooms"))
	assert.EqualValues(t, 1, findingCount(t, report, "properties with square footage over 50000"))
	assert.EqualValues(t, 1, findingCount(t, report, "hoa monthly fees over 5000"))
	assert.EqualValues(t, 1, findingCount(t, report, "valuations over 50 million"))
}

func TestRun_FlagsUnrecognizedEnums(t *testing.T) {
	db := openTestDB(t)
	p := seedProperty(t, db)

	require.NoError(t, db.Create(&models.PropertyValuation{
		ValuationID:     uuid.NewString(),
		PropertyID:      p.PropertyID,
		ValuationType:   "zestimate",
		ValuationAmount: ptr(400000.0),
	}).Error)
	require.NoError(t, db.Create(&models.RehabEstimate{
		EstimateID:   uuid.NewString(),
		PropertyID:   p.PropertyID,
		EstimateType: "teardown",
		Status:       "maybe",
	}).Error)

	report, err := newTestValidator(t, db).Run()
	require.NoError(t, err)

	assert.EqualValues(t, 1, findingCount(t, report, "valuations with unrecognized type"))
	assert.EqualValues(t, 1, findingCount(t, report, "rehab estimates with unrecognized type"))
	assert.EqualValues(t, 1, findingCount(t, report, "rehab estimates with unrecognized status"))
}

func TestReport_Warnings(t *testing.T) {
	r := &Report{Findings: []Finding{
		{Check: "a", Count: 0, Severity: SeverityOK},
		{Check: "b", Count: 3, Severity: SeverityWarning},
	}}
	warnings := r.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "b", warnings[0].Check)
}
