package query

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a gorm-scannable []string stored as a JSON column,
// used for every read model field that's a set of strings (scopes,
// roles, audiences, prompts, ...).
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := asBytes(value)
	if !ok {
		return fmt.Errorf("query.StringList: unsupported scan type %T", value)
	}
	return json.Unmarshal(bytes, l)
}

// BoolMap is a gorm-scannable map[string]bool stored as a JSON column,
// used for InstanceFeatures/SystemFeatures named booleans.
type BoolMap map[string]bool

// featureImprovedPerformance is the wire/storage key for the
// improved-performance flag. The key itself carries a long-standing
// typo ("improvered") that external callers already depend on, so it
// is preserved here; Go code reads and writes the flag only through
// BoolMap.ImprovedPerformance/SetImprovedPerformance, never the raw
// string, so the typo never leaks into call sites.
const featureImprovedPerformance = "improveredPerformance"

// ImprovedPerformance reports the improved-performance flag under its
// corrected name, reading the typo'd wire key underneath.
func (m BoolMap) ImprovedPerformance() bool {
	return m[featureImprovedPerformance]
}

// SetImprovedPerformance sets the improved-performance flag under its
// corrected name, writing the typo'd wire key underneath.
func (m BoolMap) SetImprovedPerformance(enabled bool) {
	m[featureImprovedPerformance] = enabled
}

// Value implements driver.Valuer.
func (m BoolMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(map[string]bool(m))
}

// Scan implements sql.Scanner.
func (m *BoolMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := asBytes(value)
	if !ok {
		return fmt.Errorf("query.BoolMap: unsupported scan type %T", value)
	}
	return json.Unmarshal(bytes, m)
}

func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
