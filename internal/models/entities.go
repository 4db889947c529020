package models

import "time"

// ValuationType classifies a point-in-time value estimate.
type ValuationType string

const (
	ValuationMarket   ValuationType = "market"
	ValuationAssessed ValuationType = "assessed"
	ValuationARV      ValuationType = "arv"
	ValuationList     ValuationType = "list"
	ValuationSale     ValuationType = "sale"
)

// KnownValuationType returns true if s is a recognized valuation type.
// Unrecognized values are stored as-is and flagged by the validator.
func KnownValuationType(s string) bool {
	switch ValuationType(s) {
	case ValuationMarket, ValuationAssessed, ValuationARV, ValuationList, ValuationSale:
		return true
	}
	return false
}

// EstimateType classifies the scope of a rehab estimate.
type EstimateType string

const (
	EstimateFullRehab  EstimateType = "full_rehab"
	EstimateRepair     EstimateType = "repair"
	EstimateCosmetic   EstimateType = "cosmetic"
	EstimateStructural EstimateType = "structural"
)

// KnownEstimateType returns true if s is a recognized estimate type.
func KnownEstimateType(s string) bool {
	switch EstimateType(s) {
	case EstimateFullRehab, EstimateRepair, EstimateCosmetic, EstimateStructural:
		return true
	}
	return false
}

// EstimateStatus tracks where a rehab estimate is in its workflow.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSubmitted EstimateStatus = "submitted"
	EstimateStatusApproved  EstimateStatus = "approved"
	EstimateStatusRejected  EstimateStatus = "rejected"
	EstimateStatusCompleted EstimateStatus = "completed"
)

// KnownEstimateStatus returns true if s is a recognized estimate status.
func KnownEstimateStatus(s string) bool {
	switch EstimateStatus(s) {
	case EstimateStatusDraft, EstimateStatusSubmitted, EstimateStatusApproved,
		EstimateStatusRejected, EstimateStatusCompleted:
		return true
	}
	return false
}

// PropertyLocation holds the address and geographic facts for a property.
type PropertyLocation struct {
	LocationID   string    `gorm:"column:location_id;primaryKey;size:36" json:"location_id"`
	AddressLine1 *string   `gorm:"column:address_line_1;size:255" json:"address_line_1,omitempty"`
	AddressLine2 *string   `gorm:"column:address_line_2;size:255" json:"address_line_2,omitempty"`
	City         *string   `gorm:"column:city;size:100" json:"city,omitempty"`
	State        *string   `gorm:"column:state;size:50" json:"state,omitempty"`
	ZipCode      *string   `gorm:"column:zip_code;size:20" json:"zip_code,omitempty"`
	County       *string   `gorm:"column:county;size:100" json:"county,omitempty"`
	Latitude     *float64  `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    *float64  `gorm:"column:longitude" json:"longitude,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`

	// The has-many side declares the properties.location_id foreign key for
	// schema install; the loader never populates it.
	Properties []Property `gorm:"foreignKey:LocationID;references:LocationID" json:"-"`
}

func (PropertyLocation) TableName() string { return "property_locations" }

// Property is the root entity every other record hangs off of.
type Property struct {
	PropertyID        string    `gorm:"column:property_id;primaryKey;size:36" json:"property_id"`
	LocationID        *string   `gorm:"column:location_id;size:36;index" json:"location_id,omitempty"`
	PropertyType      *string   `gorm:"column:property_type;size:50" json:"property_type,omitempty"`
	Bedrooms          *int      `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	Bathrooms         *float64  `gorm:"column:bathrooms" json:"bathrooms,omitempty"`
	SquareFootage     *int      `gorm:"column:square_footage" json:"square_footage,omitempty"`
	LotSize           *float64  `gorm:"column:lot_size" json:"lot_size,omitempty"`
	YearBuilt         *int      `gorm:"column:year_built" json:"year_built,omitempty"`
	GarageSpaces      *int      `gorm:"column:garage_spaces" json:"garage_spaces,omitempty"`
	Pool              bool      `gorm:"column:pool" json:"pool"`
	Fireplace         bool      `gorm:"column:fireplace" json:"fireplace"`
	Basement          bool      `gorm:"column:basement" json:"basement"`
	PropertyCondition *string   `gorm:"column:property_condition;size:50" json:"property_condition,omitempty"`
	ListingStatus     *string   `gorm:"column:listing_status;size:50" json:"listing_status,omitempty"`
	MLSNumber         *string   `gorm:"column:mls_number;size:64;index" json:"mls_number,omitempty"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations declare the dependent-table foreign keys for schema
	// install. The loader inserts each entity explicitly in dependency
	// order, so these stay nil during a load run.
	Hoa            *HoaDetail          `gorm:"foreignKey:PropertyID;references:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
	Valuations     []PropertyValuation `gorm:"foreignKey:PropertyID;references:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
	RehabEstimates []RehabEstimate     `gorm:"foreignKey:PropertyID;references:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Property) TableName() string { return "properties" }

// HoaDetail holds homeowner-association terms for a property.
// A property has at most one HOA row.
type HoaDetail struct {
	HoaID          string    `gorm:"column:hoa_id;primaryKey;size:36" json:"hoa_id"`
	PropertyID     string    `gorm:"column:property_id;size:36;uniqueIndex" json:"property_id"`
	HoaName        *string   `gorm:"column:hoa_name;size:255" json:"hoa_name,omitempty"`
	MonthlyFee     *float64  `gorm:"column:monthly_fee" json:"monthly_fee,omitempty"`
	AnnualFee      *float64  `gorm:"column:annual_fee" json:"annual_fee,omitempty"`
	HoaContactInfo *string   `gorm:"column:hoa_contact_info;size:255" json:"hoa_contact_info,omitempty"`
	Amenities      *string   `gorm:"column:amenities;size:1024" json:"amenities,omitempty"`
	Restrictions   *string   `gorm:"column:restrictions;size:1024" json:"restrictions,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (HoaDetail) TableName() string { return "hoa_details" }

// PropertyValuation is one point-in-time value estimate. A property may
// carry many, distinguished by type and date.
type PropertyValuation struct {
	ValuationID     string    `gorm:"column:valuation_id;primaryKey;size:36" json:"valuation_id"`
	PropertyID      string    `gorm:"column:property_id;size:36;index" json:"property_id"`
	ValuationType   string    `gorm:"column:valuation_type;size:50" json:"valuation_type"`
	ValuationAmount *float64  `gorm:"column:valuation_amount" json:"valuation_amount,omitempty"`
	ValuationDate   *time.Time `gorm:"column:valuation_date" json:"valuation_date,omitempty"`
	ValuationSource *string   `gorm:"column:valuation_source;size:100" json:"valuation_source,omitempty"`
	ConfidenceLevel *string   `gorm:"column:confidence_level;size:50" json:"confidence_level,omitempty"`
	Notes           *string   `gorm:"column:notes;size:1024" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PropertyValuation) TableName() string { return "property_valuations" }

// RehabEstimate is one renovation cost estimate for a property.
type RehabEstimate struct {
	EstimateID            string     `gorm:"column:estimate_id;primaryKey;size:36" json:"estimate_id"`
	PropertyID            string     `gorm:"column:property_id;size:36;index" json:"property_id"`
	EstimateType          string     `gorm:"column:estimate_type;size:50" json:"estimate_type"`
	EstimatedCost         *float64   `gorm:"column:estimated_cost" json:"estimated_cost,omitempty"`
	EstimateDate          *time.Time `gorm:"column:estimate_date" json:"estimate_date,omitempty"`
	ContractorName        *string    `gorm:"column:contractor_name;size:255" json:"contractor_name,omitempty"`
	WorkDescription       *string    `gorm:"column:work_description;size:1024" json:"work_description,omitempty"`
	TimelineWeeks         *int       `gorm:"column:timeline_weeks" json:"timeline_weeks,omitempty"`
	MaterialsCost         *float64   `gorm:"column:materials_cost" json:"materials_cost,omitempty"`
	LaborCost             *float64   `gorm:"column:labor_cost" json:"labor_cost,omitempty"`
	PermitCost            *float64   `gorm:"column:permit_cost" json:"permit_cost,omitempty"`
	ContingencyPercentage *float64   `gorm:"column:contingency_percentage" json:"contingency_percentage,omitempty"`
	Status                string     `gorm:"column:status;size:50" json:"status"`
	CreatedAt             time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (RehabEstimate) TableName() string { return "rehab_estimates" }
