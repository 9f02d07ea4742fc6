package indicators

import (
	"math"
	"strconv"
	"strings"
)

// MissingMarker is what DataBank writes for a missing observation
const MissingMarker = ".."

// Value is a nullable observation
type Value struct {
	Float float64
	Valid bool
}

// Missing returns an empty Value
func Missing() Value {
	return Value{}
}

// Float wraps a present observation
func Float(f float64) Value {
	return Value{Float: f, Valid: true}
}

// ParseValue converts a cell. Empty cells and ".." are missing; anything else
// must be a float.
func ParseValue(cell string) (Value, error) {
	s := strings.TrimSpace(cell)
	if s == "" || s == MissingMarker {
		return Missing(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing(), err
	}
	if math.IsNaN(f) {
		return Missing(), nil
	}
	return Float(f), nil
}

// OrNaN returns the float or NaN when missing
func (v Value) OrNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float
}

func (v Value) String() string {
	if !v.Valid {
		return MissingMarker
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}
