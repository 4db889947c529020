// Package coerce converts raw scalar values from the source document into
// canonical typed values. Unparseable values become nil plus a returned
// coercion error; callers log the error and continue, so a bad field never
// sinks its record.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind names a target semantic type.
type Kind string

const (
	Integer Kind = "integer"
	Decimal Kind = "decimal"
	Boolean Kind = "boolean"
	Date    Kind = "date"
	String  Kind = "string"
	Enum    Kind = "enum"
)

// Error reports one failed coercion: the field, the raw value and the
// target kind. It is recovered at the field level, never fatal.
type Error struct {
	Field  string
	Value  any
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot coerce %s value %v to %s: %s", e.Field, e.Value, e.Kind, e.Reason)
}

// dateLayouts are tried in order; first match wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"January 2, 2006",
}

var (
	truthy = map[string]struct{}{
		"true": {}, "t": {}, "yes": {}, "y": {}, "1": {},
	}
	falsy = map[string]struct{}{
		"false": {}, "f": {}, "no": {}, "n": {}, "0": {}, "": {},
	}
)

// ToString trims and returns the value as a string. Empty strings are nil.
func ToString(field string, raw any) (*string, *Error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s, nil
	case int:
		s := strconv.Itoa(v)
		return &s, nil
	case bool:
		s := strconv.FormatBool(v)
		return &s, nil
	default:
		return nil, &Error{Field: field, Value: raw, Kind: String, Reason: "not a scalar"}
	}
}

// ToInt parses an integer. Numeric strings may carry currency symbols and
// thousands separators; fractional values are rejected rather than
// silently truncated.
func ToInt(field string, raw any) (*int, *Error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		if v != math.Trunc(v) {
			return nil, &Error{Field: field, Value: raw, Kind: Integer, Reason: "fractional value"}
		}
		n := int(v)
		return &n, nil
	case int:
		n := v
		return &n, nil
	case string:
		s := stripNumeric(v)
		if s == "" {
			return nil, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return &n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, &Error{Field: field, Value: raw, Kind: Integer, Reason: "not an integer"}
		}
		n := int(f)
		return &n, nil
	default:
		return nil, &Error{Field: field, Value: raw, Kind: Integer, Reason: "unsupported type"}
	}
}

// ToDecimal parses a decimal number, stripping currency symbols and
// thousands separators from string values first.
func ToDecimal(field string, raw any) (*float64, *Error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		f := v
		return &f, nil
	case int:
		f := float64(v)
		return &f, nil
	case string:
		s := stripNumeric(v)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &Error{Field: field, Value: raw, Kind: Decimal, Reason: "not a number"}
		}
		return &f, nil
	default:
		return nil, &Error{Field: field, Value: raw, Kind: Decimal, Reason: "unsupported type"}
	}
}

// ToBool recognizes a fixed set of truthy and falsy tokens. Anything else
// is a coercion failure rather than a silent default.
func ToBool(field string, raw any) (*bool, *Error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		b := v
		return &b, nil
	case float64:
		switch v {
		case 1:
			b := true
			return &b, nil
		case 0:
			b := false
			return &b, nil
		}
		return nil, &Error{Field: field, Value: raw, Kind: Boolean, Reason: "not 0 or 1"}
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if _, ok := truthy[s]; ok {
			b := true
			return &b, nil
		}
		if _, ok := falsy[s]; ok {
			b := false
			return &b, nil
		}
		return nil, &Error{Field: field, Value: raw, Kind: Boolean, Reason: "unrecognized token"}
	default:
		return nil, &Error{Field: field, Value: raw, Kind: Boolean, Reason: "unsupported type"}
	}
}

// ToDate parses a date from the known layouts, first match wins.
func ToDate(field string, raw any) (*time.Time, *Error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v
		return &t, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t, nil
			}
		}
		return nil, &Error{Field: field, Value: raw, Kind: Date, Reason: "no known layout matches"}
	default:
		return nil, &Error{Field: field, Value: raw, Kind: Date, Reason: "unsupported type"}
	}
}

// ToEnum lowercases and trims the value. Membership in the known set is the
// validator's business: unrecognized values are preserved, not rejected.
func ToEnum(field string, raw any) (*string, *Error) {
	s, err := ToString(field, raw)
	if err != nil {
		return nil, &Error{Field: field, Value: raw, Kind: Enum, Reason: err.Reason}
	}
	if s == nil {
		return nil, nil
	}
	v := strings.ToLower(*s)
	return &v, nil
}

// stripNumeric removes currency symbols, thousands separators and spaces
// so "$1,250.50" parses as 1250.50.
func stripNumeric(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '_':
			return -1
		}
		return r
	}, s)
}
