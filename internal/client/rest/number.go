package rest

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Number decodes a JSON number or numeric string. Null, empty and
// unparseable values decode as unset instead of failing the whole payload.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*n = Number{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*n = Number{}
		return nil
	}
	f, _ := d.Float64()
	*n = Number{Value: f, Valid: true}
	return nil
}

// Float64 returns the value, or zero when unset.
func (n Number) Float64() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Ptr returns nil when unset.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// ParseFloat parses a decimal string, returning zero for empty or invalid input.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
