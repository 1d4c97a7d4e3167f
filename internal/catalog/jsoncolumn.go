package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// datatypeJSON is a minimal jsonb Scanner/Valuer, avoiding a dependency on
// gorm.io/datatypes for the two ad-hoc JSON columns (trait weights, filter
// hints) this package needs.
type datatypeJSON []byte

func (j *datatypeJSON) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		*j = []byte(v)
	case []byte:
		*j = append([]byte(nil), v...)
	default:
		return fmt.Errorf("datatypeJSON: unsupported scan type %T", value)
	}
	return nil
}

func (j datatypeJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

func (j datatypeJSON) asFloatMap() map[string]float64 {
	if len(j) == 0 {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal(j, &out); err != nil {
		return nil
	}
	return out
}

func (j datatypeJSON) asAnyMap() map[string]any {
	if len(j) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(j, &out); err != nil {
		return nil
	}
	return out
}
