package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional numeric field. Services send numbers, numeric strings,
// or null; anything that does not parse leaves the Number invalid.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a valid Number holding v.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Float returns the value when it is present and finite.
func (n Number) Float() (float64, bool) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return 0, false
	}
	return n.Value, true
}

// OrZero returns the finite value or 0.
func (n Number) OrZero() float64 {
	v, _ := n.Float()
	return v
}

// UnmarshalJSON never fails on malformed values; they decode as absent.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = NewNumber(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*n = NewNumber(v)
	return nil
}

// MarshalJSON writes null for absent or non-finite values.
func (n Number) MarshalJSON() ([]byte, error) {
	v, ok := n.Float()
	if !ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

// String renders the value for tables; absent values render empty.
func (n Number) String() string {
	v, ok := n.Float()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
