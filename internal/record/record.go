package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one influencer row as returned by the remote store. Rows carry an
// open-ended field set, so the model stays a map with typed accessors rather
// than a fixed struct.
type Record map[string]any

// ID returns the store-assigned integer identifier, or 0 when absent.
func (r Record) ID() int64 {
	id, _ := r.Int("id")
	return id
}

// Text returns the field rendered as a string. Absent and nil fields render
// as "". Numeric fields decoded from JSON render without a trailing ".0".
func (r Record) Text(field string) string {
	value, ok := r[field]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int parses the field as an integer. JSON numbers, numeric strings, and
// integral floats all parse; everything else reports false.
func (r Record) Int(field string) (int64, bool) {
	value, ok := r[field]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Truthy reports whether the field holds a value a loosely-typed upstream
// would treat as set: true booleans, non-zero numbers, non-blank strings.
func (r Record) Truthy(field string) bool {
	value, ok := r[field]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

// HasText reports whether the field is present and non-blank after
// stringification. Zero numbers and false booleans count as unset, matching
// the completeness rules used by the scorer.
func (r Record) HasText(field string) bool {
	if !r.Truthy(field) {
		return false
	}
	return strings.TrimSpace(r.Text(field)) != ""
}
