package analysis

import (
	"encoding/json"
	"math"
)

// Float is a float64 whose undefined (NaN) values render as JSON null.
// Indicator series carry NaN for insufficient history; encoding/json
// rejects NaN outright, so report rows use this type instead.
type Float float64

// Defined reports whether the value is a real number.
func (f Float) Defined() bool {
	return !math.IsNaN(float64(f))
}

// MarshalJSON renders NaN as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}
