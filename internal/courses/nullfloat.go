package courses

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NullFloat is an optional number. Decoding never fails: malformed input
// (non-numeric strings, NaN, wrong JSON types) decodes as absent.
type NullFloat struct {
	Float float64
	Valid bool
}

// Float returns a present NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Float: v, Valid: true}
}

// Or returns the value, or def when absent.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float
}

// Ptr returns nil when absent.
func (n NullFloat) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float
	return &v
}

func (n *NullFloat) Scan(src any) error {
	*n = coerce(src)
	return nil
}

func (n NullFloat) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float, nil
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = NullFloat{}
			return nil
		}
		*n = coerce(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = NullFloat{}
		return nil
	}
	*n = coerce(f)
	return nil
}

func coerce(src any) NullFloat {
	var f float64
	switch v := src.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case []byte:
		return coerce(string(v))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return NullFloat{}
		}
		f = parsed
	default:
		return NullFloat{}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NullFloat{}
	}
	return Float(f)
}
