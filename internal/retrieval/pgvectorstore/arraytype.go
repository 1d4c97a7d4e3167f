package pgvectorstore

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// pqArray renders a Go string slice as a Postgres array literal, usable
// directly as a query argument (e.g. in a `genre_tags && ?` overlap
// expression). Named after the lib/pq convention this mirrors, without
// adding a dependency on lib/pq itself.
func pqArray(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = `"` + strings.ReplaceAll(item, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(escaped, ",") + "}"
}

// Scan implements sql.Scanner for reading a Postgres text[] column back
// into a Go string slice.
func (p *pq) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("pq: unsupported scan type %T", value)
	}
	*p = parsePGArray(raw)
	return nil
}

// Value implements driver.Valuer so a pq can be written back with gorm's
// default Create/Save paths.
func (p pq) Value() (driver.Value, error) {
	return pqArray([]string(p)), nil
}

func parsePGArray(raw string) []string {
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimPrefix(part, `"`)
		part = strings.TrimSuffix(part, `"`)
		out[i] = strings.ReplaceAll(part, `\"`, `"`)
	}
	return out
}
