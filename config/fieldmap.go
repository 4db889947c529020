package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldMap is an alias table for one record shape: for each canonical
// attribute name, an ordered list of source field names that may carry it.
type FieldMap struct {
	aliases map[string][]string
	sources map[string]string
}

// FieldMaps holds the full field-mapping configuration, loaded once at
// startup and read-only afterwards. Record covers the flat source record;
// Valuation and Rehab cover the elements of array-valued repeating fields,
// whose short keys (type, amount, date) would collide with record-level
// aliases if kept in one table.
type FieldMaps struct {
	Version   int
	Record    *FieldMap
	Valuation *FieldMap
	Rehab     *FieldMap
}

type fieldMapFile struct {
	Version         int                 `yaml:"version"`
	Fields          map[string][]string `yaml:"fields"`
	ValuationFields map[string][]string `yaml:"valuation_fields"`
	RehabFields     map[string][]string `yaml:"rehab_fields"`
}

// LoadFieldMaps reads the alias tables from a YAML document. The canonical
// name itself is always the highest-priority candidate, whether or not the
// document lists it.
func LoadFieldMaps(path string) (*FieldMaps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field map: %w", err)
	}

	var file fieldMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse field map: %w", err)
	}
	if len(file.Fields) == 0 {
		return nil, fmt.Errorf("field map %s defines no fields", path)
	}

	return &FieldMaps{
		Version:   file.Version,
		Record:    NewFieldMap(file.Fields),
		Valuation: NewFieldMap(file.ValuationFields),
		Rehab:     NewFieldMap(file.RehabFields),
	}, nil
}

// NewFieldMap builds an alias table from canonical name -> ordered aliases.
func NewFieldMap(fields map[string][]string) *FieldMap {
	m := &FieldMap{
		aliases: make(map[string][]string, len(fields)),
		sources: make(map[string]string),
	}
	for canonical, aliases := range fields {
		candidates := make([]string, 0, len(aliases)+1)
		candidates = append(candidates, canonical)
		m.sources[canonical] = canonical
		for _, a := range aliases {
			if a == canonical {
				continue
			}
			candidates = append(candidates, a)
			m.sources[a] = canonical
		}
		m.aliases[canonical] = candidates
	}
	return m
}

// Candidates returns the ordered source field names for a canonical
// attribute. The canonical name itself comes first. Unlisted attributes
// resolve by their canonical name only.
func (m *FieldMap) Candidates(canonical string) []string {
	if c, ok := m.aliases[canonical]; ok {
		return c
	}
	return []string{canonical}
}

// Canonical reports which canonical attribute a source field maps to.
func (m *FieldMap) Canonical(source string) (string, bool) {
	c, ok := m.sources[source]
	return c, ok
}
