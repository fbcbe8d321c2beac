package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingInfo holds the delivery contact details captured at checkout,
// persisted as JSONB. Address fields are empty for pickup orders.
type ShippingInfo struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Value marshals the struct into JSON for Postgres.
func (s ShippingInfo) Value() (driver.Value, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the struct.
func (s *ShippingInfo) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingInfo{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("shipping info: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, s)
}
