package loader

import (
	"database/sql/driver"
	"errors"
	"fmt"
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

	"propetl/config"
	"propetl/internal/database"
	"propetl/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open("file:"+path+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.InstallSchema(db))
	return db
}

func newTestLoader(t *testing.T, db *gorm.DB) *Loader {
	t.Helper()
	cfg := &config.Config{}
	cfg.Load.BatchSize = 10
	cfg.Load.MaxRetries = 0
	cfg.Load.RetryDelay = 0
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(db, cfg, logger)
}

func ptr[T any](v T) *T { return &v }

// testBundle builds a keyed bundle the way normalization hands them over.
func testBundle(index int, mls, address string) *models.Bundle {
	propertyID := uuid.NewString()
	locationID := uuid.NewString()

	b := &models.Bundle{
		Source: models.SourceRef{Index: index, MLSNumber: mls, Address: address},
		Location: &models.PropertyLocation{
			LocationID:   locationID,
			AddressLine1: ptr(address),
			City:         ptr("Austin"),
			State:        ptr("TX"),
			ZipCode:      ptr("78701"),
		},
		Property: &models.Property{
			PropertyID:   propertyID,
			LocationID:   &locationID,
			PropertyType: ptr("single_family"),
			Bedrooms:     ptr(3),
			Bathrooms:    ptr(2.0),
			MLSNumber:    ptr(mls),
		},
		Hoa: &models.HoaDetail{
			HoaID:      uuid.NewString(),
			PropertyID: propertyID,
			HoaName:    ptr("Oak Ridge HOA"),
			MonthlyFee: ptr(150.0),
		},
		Valuations: []models.PropertyValuation{{
			ValuationID:     uuid.NewString(),
			PropertyID:      propertyID,
			ValuationType:   "market",
			ValuationAmount: ptr(450000.0),
		}},
		RehabEstimates: []models.RehabEstimate{{
			EstimateID:    uuid.NewString(),
			PropertyID:    propertyID,
			EstimateType:  "repair",
			EstimatedCost: ptr(12000.0),
			Status:        "draft",
		}},
	}
	if mls == "" {
		b.Property.MLSNumber = nil
	}
	if address == "" {
		b.Location = nil
		b.Property.LocationID = nil
	}
	return b
}

func tableCount(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestLoad_InsertsBundleInDependencyOrder(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	b := testBundle(0, "MLS-001", "123 Main St")
	outcomes, err := l.Load([]*models.Bundle{b})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeLoaded, outcomes[0].Status)
	assert.Equal(t, 5, outcomes[0].Rows)

	assert.EqualValues(t, 1, tableCount(t, db, "property_locations"))
	assert.EqualValues(t, 1, tableCount(t, db, "properties"))
	assert.EqualValues(t, 1, tableCount(t, db, "hoa_details"))
	assert.EqualValues(t, 1, tableCount(t, db, "property_valuations"))
	assert.EqualValues(t, 1, tableCount(t, db, "rehab_estimates"))

	var stored models.Property
	require.NoError(t, db.First(&stored, "property_id = ?", b.Property.PropertyID).Error)
	assert.Equal(t, 3, *stored.Bedrooms)
	assert.Equal(t, 2.0, *stored.Bathrooms)
	require.NotNil(t, stored.LocationID)
	assert.Equal(t, b.Location.LocationID, *stored.LocationID)
}

func TestLoad_WarningsSurfaceInOutcome(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	b := testBundle(0, "MLS-002", "5 Warn Way")
	b.Warn("year_built", "cannot coerce year_built")

	outcomes, err := l.Load([]*models.Bundle{b})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWithWarnings, outcomes[0].Status)
	require.Len(t, outcomes[0].Warnings, 1)
	assert.Equal(t, "year_built", outcomes[0].Warnings[0].Field)
}

func TestLoad_RerunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	first := testBundle(0, "MLS-010", "77 Rerun Rd")
	_, err := l.Load([]*models.Bundle{first})
	require.NoError(t, err)

	// same natural key, fresh surrogate keys, updated attributes
	second := testBundle(0, "MLS-010", "77 Rerun Rd")
	second.Property.Bedrooms = ptr(4)
	second.Valuations = append(second.Valuations, models.PropertyValuation{
		ValuationID:     uuid.NewString(),
		PropertyID:      second.Property.PropertyID,
		ValuationType:   "assessed",
		ValuationAmount: ptr(410000.0),
	})

	outcomes, err := l.Load([]*models.Bundle{second})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeLoaded, outcomes[0].Status)

	assert.EqualValues(t, 1, tableCount(t, db, "properties"))
	assert.EqualValues(t, 1, tableCount(t, db, "property_locations"))
	assert.EqualValues(t, 1, tableCount(t, db, "hoa_details"))
	assert.EqualValues(t, 2, tableCount(t, db, "property_valuations"))
	assert.EqualValues(t, 1, tableCount(t, db, "rehab_estimates"))

	var stored models.Property
	require.NoError(t, db.First(&stored, "mls_number = ?", "MLS-010").Error)
	assert.Equal(t, first.Property.PropertyID, stored.PropertyID)
	assert.Equal(t, 4, *stored.Bedrooms)
	assert.Equal(t, first.Property.CreatedAt.Unix(), stored.CreatedAt.Unix())
}

func TestLoad_DedupByAddressWhenNoMLS(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	first := testBundle(0, "", "9 Dedup Dr")
	_, err := l.Load([]*models.Bundle{first})
	require.NoError(t, err)

	// address match is case-insensitive
	second := testBundle(0, "", "9 DEDUP DR")
	_, err = l.Load([]*models.Bundle{second})
	require.NoError(t, err)

	assert.EqualValues(t, 1, tableCount(t, db, "properties"))
	assert.EqualValues(t, 1, tableCount(t, db, "property_locations"))
}

func TestLoad_KeylessRecordsAlwaysInsert(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	_, err := l.Load([]*models.Bundle{testBundle(0, "", ""), testBundle(1, "", "")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, tableCount(t, db, "properties"))
}

func TestLoad_FailedBundleRollsBackAndRunContinues(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	bad := testBundle(0, "MLS-BAD", "1 Broken Blvd")
	// duplicate surrogate key inside one bundle forces the transaction down
	bad.Valuations = append(bad.Valuations, bad.Valuations[0])
	good := testBundle(1, "MLS-GOOD", "2 Fine St")

	outcomes, err := l.Load([]*models.Bundle{bad, good})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, models.OutcomeFailed, outcomes[0].Status)
	assert.NotEmpty(t, outcomes[0].Error)
	assert.Equal(t, models.OutcomeLoaded, outcomes[1].Status)

	// nothing from the failed bundle survives
	assert.EqualValues(t, 1, tableCount(t, db, "properties"))
	var n int64
	require.NoError(t, db.Table("properties").Where("mls_number = ?", "MLS-BAD").Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestLoad_SystemicFailureKeepsCommittedBundles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	open := func() *gorm.DB {
		db, err := gorm.Open(sqlite.Open("file:"+path+"?_foreign_keys=on"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		require.NoError(t, err)
		return db
	}

	db := open()
	require.NoError(t, database.InstallSchema(db))
	l := newTestLoader(t, db)

	_, err := l.Load([]*models.Bundle{testBundle(0, "MLS-DONE", "1 Committed Ct")})
	require.NoError(t, err)

	// the database goes away between bundles
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	outcomes, err := l.Load([]*models.Bundle{
		testBundle(1, "MLS-LOST", "2 Lost Ln"),
		testBundle(2, "MLS-NEVER", "3 Never Ave"),
	})
	require.Error(t, err)
	assert.True(t, IsSystemic(errors.Unwrap(err)))

	// only the in-flight bundle failed; the rest were never attempted
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeFailed, outcomes[0].Status)

	db = open()
	var n int64
	require.NoError(t, db.Table("properties").Where("mls_number = ?", "MLS-DONE").Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Table("properties").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestLoad_ReferentialMismatchAbortsRun(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	b := testBundle(0, "MLS-REF", "3 Mismatch Ct")
	b.Valuations[0].PropertyID = uuid.NewString()

	outcomes, err := l.Load([]*models.Bundle{b, testBundle(1, "MLS-OK", "4 Ok Ave")})
	require.Error(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeFailed, outcomes[0].Status)
	assert.EqualValues(t, 0, tableCount(t, db, "properties"))
}

func TestLoad_MissingPropertyKeyAbortsRun(t *testing.T) {
	db := openTestDB(t)
	l := newTestLoader(t, db)

	b := testBundle(0, "MLS-NOKEY", "5 Keyless Ln")
	b.Property.PropertyID = ""

	_, err := l.Load([]*models.Bundle{b})
	require.Error(t, err)
	assert.True(t, IsSystemic(errors.Unwrap(err)))
}

func TestIsSystemic(t *testing.T) {
	assert.False(t, IsSystemic(nil))
	assert.False(t, IsSystemic(errors.New("UNIQUE constraint failed: properties.property_id")))
	assert.True(t, IsSystemic(driver.ErrBadConn))
	assert.True(t, IsSystemic(gorm.ErrInvalidDB))
	assert.True(t, IsSystemic(errors.New("no such table: properties")))
	assert.True(t, IsSystemic(errors.New("Table 'properties.properties' doesn't exist")))
	assert.True(t, IsSystemic(fmt.Errorf("query: %w", errReferential)))
}

func TestCountRows(t *testing.T) {
	b := testBundle(0, "MLS-C", "6 Count Ct")
	assert.Equal(t, 5, countRows(b))

	b.Hoa = nil
	b.Location = nil
	b.Property.LocationID = nil
	assert.Equal(t, 3, countRows(b))
}
