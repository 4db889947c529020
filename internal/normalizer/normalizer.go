// Package normalizer splits one flat source record into the typed entity
// sub-records it carries: location, property, HOA terms, valuations and
// rehab estimates. A property sub-record is always produced; everything
// else is emitted only when the source actually mentions it.
package normalizer

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"propetl/config"
	"propetl/internal/coerce"
	"propetl/internal/mapper"
	"propetl/internal/models"
)

// importSource marks rows fanned out from flattened scalar fields.
const importSource = "import"

type Normalizer struct {
	record    *mapper.Mapper
	valuation *mapper.Mapper
	rehab     *mapper.Mapper
	logger    *logrus.Logger

	// now supplies the valuation/estimate date for fanned-out rows;
	// overridable in tests.
	now func() time.Time
}

func New(maps *config.FieldMaps, logger *logrus.Logger) *Normalizer {
	return &Normalizer{
		record:    mapper.New(maps.Record),
		valuation: mapper.New(maps.Valuation),
		rehab:     mapper.New(maps.Rehab),
		logger:    logger,
		now:       time.Now,
	}
}

// Normalize turns one source record into a key-assigned bundle. Field-level
// problems are recovered as warnings on the bundle; Normalize never fails.
func (n *Normalizer) Normalize(index int, record map[string]any) *models.Bundle {
	bundle := &models.Bundle{Source: models.SourceRef{Index: index}}
	b := &builder{n: n, m: n.record, record: record, bundle: bundle}

	bundle.Location = n.buildLocation(b)
	bundle.Property = n.buildProperty(b)
	bundle.Hoa = n.buildHoa(b)
	bundle.Valuations = n.buildValuations(b)
	bundle.RehabEstimates = n.buildRehabEstimates(b)

	assignKeys(bundle)

	if bundle.Property.MLSNumber != nil {
		bundle.Source.MLSNumber = *bundle.Property.MLSNumber
	}
	if bundle.Location != nil && bundle.Location.AddressLine1 != nil {
		bundle.Source.Address = *bundle.Location.AddressLine1
	}

	if overflow := n.record.Overflow(record); len(overflow) > 0 {
		n.logger.WithFields(logrus.Fields{
			"record": index,
			"fields": keysOf(overflow),
		}).Debug("Unmapped source fields ignored")
	}

	return bundle
}

func (n *Normalizer) buildLocation(b *builder) *models.PropertyLocation {
	loc := &models.PropertyLocation{
		AddressLine1: b.str("address"),
		AddressLine2: b.str("address_line_2"),
		City:         b.str("city"),
		State:        b.str("state"),
		ZipCode:      b.str("zip_code"),
		County:       b.str("county"),
		Latitude:     b.dec("latitude"),
		Longitude:    b.dec("longitude"),
	}
	if loc.AddressLine1 == nil && loc.AddressLine2 == nil && loc.City == nil &&
		loc.State == nil && loc.ZipCode == nil && loc.County == nil &&
		loc.Latitude == nil && loc.Longitude == nil {
		return nil
	}
	return loc
}

func (n *Normalizer) buildProperty(b *builder) *models.Property {
	p := &models.Property{
		PropertyType:      b.enum("property_type"),
		Bedrooms:          b.integer("bedrooms"),
		Bathrooms:         b.dec("bathrooms"),
		SquareFootage:     b.integer("square_footage"),
		LotSize:           b.dec("lot_size"),
		YearBuilt:         b.integer("year_built"),
		GarageSpaces:      b.integer("garage_spaces"),
		Pool:              b.boolean("pool"),
		Fireplace:         b.boolean("fireplace"),
		Basement:          b.boolean("basement"),
		PropertyCondition: b.str("property_condition"),
		ListingStatus:     b.enum("listing_status"),
		MLSNumber:         b.str("mls_number"),
	}
	if p.PropertyType == nil {
		b.bundle.Warn("property_type", "no alias resolves property_type")
	}
	return p
}

func (n *Normalizer) buildHoa(b *builder) *models.HoaDetail {
	hoa := &models.HoaDetail{
		HoaName:        b.str("hoa_name"),
		MonthlyFee:     b.dec("hoa_monthly_fee"),
		AnnualFee:      b.dec("hoa_annual_fee"),
		HoaContactInfo: b.str("hoa_contact_info"),
		Amenities:      b.str("hoa_amenities"),
		Restrictions:   b.str("hoa_restrictions"),
	}
	if hoa.HoaName == nil && hoa.MonthlyFee == nil && hoa.AnnualFee == nil &&
		hoa.HoaContactInfo == nil && hoa.Amenities == nil && hoa.Restrictions == nil {
		return nil
	}
	return hoa
}

// flattened valuation fields and the type each one fans out to.
var valuationFanOut = []struct {
	field string
	vtype models.ValuationType
}{
	{"market_value", models.ValuationMarket},
	{"assessed_value", models.ValuationAssessed},
	{"arv", models.ValuationARV},
	{"list_price", models.ValuationList},
	{"sale_price", models.ValuationSale},
}

func (n *Normalizer) buildValuations(b *builder) []models.PropertyValuation {
	var out []models.PropertyValuation

	// Shape 1: array-valued field, one sub-record per element.
	for _, elem := range b.elements("valuations") {
		e := &builder{n: n, m: n.valuation, record: elem, bundle: b.bundle}
		v := models.PropertyValuation{
			ValuationAmount: e.dec("valuation_amount"),
			ValuationDate:   e.date("valuation_date"),
			ValuationSource: e.str("valuation_source"),
			ConfidenceLevel: e.enum("confidence_level"),
			Notes:           e.str("notes"),
		}
		if t := e.enum("valuation_type"); t != nil {
			v.ValuationType = *t
		} else {
			v.ValuationType = string(models.ValuationMarket)
			b.bundle.Warn("valuation_type", "valuation element has no type, defaulting to market")
		}
		if v.ValuationAmount == nil && v.ValuationDate == nil && v.ValuationSource == nil {
			continue
		}
		out = append(out, v)
	}

	// Shape 2: flattened scalar fields, each collapsing to one sub-record.
	runDate := n.now()
	for _, fan := range valuationFanOut {
		amount := b.dec(fan.field)
		if amount == nil {
			continue
		}
		source := importSource
		confidence := "medium"
		notes := fmt.Sprintf("imported from source field %s", fan.field)
		date := runDate
		out = append(out, models.PropertyValuation{
			ValuationType:   string(fan.vtype),
			ValuationAmount: amount,
			ValuationDate:   &date,
			ValuationSource: &source,
			ConfidenceLevel: &confidence,
			Notes:           &notes,
		})
	}

	return out
}

// flattened rehab cost fields and the estimate type each one fans out to.
var rehabFanOut = []struct {
	field string
	etype models.EstimateType
}{
	{"rehab_cost", models.EstimateFullRehab},
	{"repair_cost", models.EstimateRepair},
	{"cosmetic_cost", models.EstimateCosmetic},
	{"structural_cost", models.EstimateStructural},
}

func (n *Normalizer) buildRehabEstimates(b *builder) []models.RehabEstimate {
	var out []models.RehabEstimate

	for _, elem := range b.elements("rehab_estimates") {
		e := &builder{n: n, m: n.rehab, record: elem, bundle: b.bundle}
		r := models.RehabEstimate{
			EstimatedCost:         e.dec("estimated_cost"),
			EstimateDate:          e.date("estimate_date"),
			ContractorName:        e.str("contractor_name"),
			WorkDescription:       e.str("work_description"),
			TimelineWeeks:         e.integer("timeline_weeks"),
			MaterialsCost:         e.dec("materials_cost"),
			LaborCost:             e.dec("labor_cost"),
			PermitCost:            e.dec("permit_cost"),
			ContingencyPercentage: e.dec("contingency_percentage"),
		}
		if t := e.enum("estimate_type"); t != nil {
			r.EstimateType = *t
		} else {
			r.EstimateType = string(models.EstimateFullRehab)
			b.bundle.Warn("estimate_type", "rehab element has no type, defaulting to full_rehab")
		}
		if s := e.enum("status"); s != nil {
			r.Status = *s
		} else {
			r.Status = string(models.EstimateStatusDraft)
		}
		if r.EstimatedCost == nil && r.WorkDescription == nil && r.ContractorName == nil {
			continue
		}
		out = append(out, r)
	}

	runDate := n.now()
	for _, fan := range rehabFanOut {
		cost := b.dec(fan.field)
		if cost == nil {
			continue
		}
		date := runDate
		out = append(out, models.RehabEstimate{
			EstimateType:          string(fan.etype),
			EstimatedCost:         cost,
			EstimateDate:          &date,
			ContractorName:        b.str("contractor_name"),
			WorkDescription:       b.str(fan.field + "_description"),
			TimelineWeeks:         b.integer("timeline_weeks"),
			MaterialsCost:         b.dec("materials_cost"),
			LaborCost:             b.dec("labor_cost"),
			PermitCost:            b.dec("permit_cost"),
			ContingencyPercentage: b.dec("contingency_percentage"),
			Status:                string(models.EstimateStatusDraft),
		})
	}

	return out
}

// builder couples one record (or array element) with its alias table and
// funnels every coercion failure into the bundle's warnings.
type builder struct {
	n      *Normalizer
	m      *mapper.Mapper
	record map[string]any
	bundle *models.Bundle
}

func (b *builder) warn(cerr *coerce.Error) {
	b.bundle.Warn(cerr.Field, cerr.Error())
	b.n.logger.WithFields(logrus.Fields{
		"record": b.bundle.Source.Index,
		"field":  cerr.Field,
		"value":  fmt.Sprintf("%v", cerr.Value),
		"type":   string(cerr.Kind),
	}).Warn("Type coercion failed, value nulled")
}

func (b *builder) str(canonical string) *string {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	v, cerr := coerce.ToString(canonical, raw)
	if cerr != nil {
		b.warn(cerr)
		return nil
	}
	return v
}

func (b *builder) integer(canonical string) *int {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	v, cerr := coerce.ToInt(canonical, raw)
	if cerr != nil {
		b.warn(cerr)
		return nil
	}
	return v
}

func (b *builder) dec(canonical string) *float64 {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	v, cerr := coerce.ToDecimal(canonical, raw)
	if cerr != nil {
		b.warn(cerr)
		return nil
	}
	return v
}

func (b *builder) boolean(canonical string) bool {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return false
	}
	v, cerr := coerce.ToBool(canonical, raw)
	if cerr != nil || v == nil {
		if cerr != nil {
			b.warn(cerr)
		}
		return false
	}
	return *v
}

func (b *builder) date(canonical string) *time.Time {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	v, cerr := coerce.ToDate(canonical, raw)
	if cerr != nil {
		b.warn(cerr)
		return nil
	}
	return v
}

func (b *builder) enum(canonical string) *string {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	v, cerr := coerce.ToEnum(canonical, raw)
	if cerr != nil {
		b.warn(cerr)
		return nil
	}
	return v
}

// elements extracts the repeating sub-records of an array-valued field.
// A single object is tolerated as a one-element array.
func (b *builder) elements(canonical string) []map[string]any {
	raw, ok := b.m.Resolve(b.record, canonical)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, elem := range v {
			m, isMap := elem.(map[string]any)
			if !isMap {
				b.bundle.Warn(canonical, fmt.Sprintf("element %d is not an object, skipped", i))
				continue
			}
			out = append(out, m)
		}
		return out
	case map[string]any:
		return []map[string]any{v}
	default:
		b.bundle.Warn(canonical, "expected an array of objects")
		return nil
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
