package models

import "time"

// Setting is one key/value row of store configuration. Values are stored as
// JSON so a key can hold a string, a number or a structured document.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
