package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric field as it arrives from a supplier submission. It
// accepts JSON numbers, numeric strings ("12.50", "1.234,56"), null and
// missing values. Anything that cannot be read as a finite number is absent.
type Number struct {
	value float64
	valid bool
}

// NumberOf returns a present Number holding v. Non-finite values are absent.
func NumberOf(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{value: v, valid: true}
}

// Valid reports whether the number was present and readable.
func (n Number) Valid() bool { return n.valid }

// Float64 returns the value and whether it was present.
func (n Number) Float64() (float64, bool) { return n.value, n.valid }

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.valid {
		return def
	}
	return n.value
}

// UnmarshalJSON never fails on content: unreadable values become absent.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil //nolint:nilerr // unreadable strings are absent values
		}
		*n = ParseNumber(s)
		return nil
	}
	*n = ParseNumber(string(b))
	return nil
}

// MarshalJSON writes absent numbers as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// ParseNumber reads a loosely formatted number. When both '.' and ',' occur,
// the one appearing last is the decimal separator; a lone ',' is decimal.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "R$€£ ")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Number{}
	}
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}
	}
	f, _ := d.Float64()
	return NumberOf(f)
}
