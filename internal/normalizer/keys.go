package normalizer

import (
	"github.com/google/uuid"

	"propetl/internal/models"
)

// assignKeys gives every sub-record a fresh surrogate key and points each
// dependent's foreign key at the property. The property key is generated
// before any dependent references it; the loader preserves that order.
// Keys are independent per source record: identical addresses in two
// records get distinct keys (dedup is the loader's rerun policy).
func assignKeys(b *models.Bundle) {
	propertyID := uuid.NewString()
	b.Property.PropertyID = propertyID

	if b.Location != nil {
		b.Location.LocationID = uuid.NewString()
		b.Property.LocationID = &b.Location.LocationID
	}
	if b.Hoa != nil {
		b.Hoa.HoaID = uuid.NewString()
		b.Hoa.PropertyID = propertyID
	}
	for i := range b.Valuations {
		b.Valuations[i].ValuationID = uuid.NewString()
		b.Valuations[i].PropertyID = propertyID
	}
	for i := range b.RehabEstimates {
		b.RehabEstimates[i].EstimateID = uuid.NewString()
		b.RehabEstimates[i].PropertyID = propertyID
	}
}
