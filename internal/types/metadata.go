package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata represents a JSONB field for storing key-value pairs
type Metadata map[string]string

// Scan implements the sql.Scanner interface for Metadata
func (m *Metadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = make(Metadata)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := make(Metadata)
	err := json.Unmarshal(raw, &result)
	*m = result
	return err
}

// Value implements the driver.Valuer interface for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}

// Get returns the value for key or fallback when absent or empty
func (m Metadata) Get(key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
