// Package mapper resolves variant source field names onto canonical
// attribute names using the static alias table loaded at startup.
package mapper

import "propetl/config"

// Mapper answers "which source field carries this canonical attribute" for
// one record shape. It is a pure lookup over an immutable alias table.
type Mapper struct {
	fm *config.FieldMap
}

func New(fm *config.FieldMap) *Mapper {
	return &Mapper{fm: fm}
}

// Resolve returns the first present value among the canonical attribute's
// candidate source fields, in priority order. Explicit nulls and empty
// strings count as absent, matching how the source data signals "no value".
func (m *Mapper) Resolve(record map[string]any, canonical string) (any, bool) {
	for _, candidate := range m.fm.Candidates(canonical) {
		v, ok := record[candidate]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Overflow returns the source fields that no alias table entry covers.
// They play no part in normalization but are logged for audit.
func (m *Mapper) Overflow(record map[string]any) map[string]any {
	var extra map[string]any
	for k, v := range record {
		if _, known := m.fm.Canonical(k); known {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}
