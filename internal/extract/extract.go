// Package extract reads the raw input document. Anything wrong with the
// file itself is fatal: the run aborts before touching the database.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoRecords means the input parsed but contained nothing to load.
var ErrNoRecords = errors.New("input file contains no records")

// Records reads a JSON document that is either a single object or an array
// of objects and returns one flat record per property.
func Records(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file %s: %w", path, ErrNoRecords)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}

	switch v := doc.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("input file %s: %w", path, ErrNoRecords)
		}
		records := make([]map[string]any, 0, len(v))
		for i, elem := range v {
			rec, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("input file %s: element %d is not an object", path, i)
			}
			records = append(records, rec)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("input file %s: expected an object or an array of objects", path)
	}
}
