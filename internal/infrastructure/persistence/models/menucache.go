package models

import "time"

// MenuCacheModel is the durable cache entry for a tenant's fetched menu.
// The payload is the normalized menu response serialized as JSON. One row
// per cache key; writes upsert.
type MenuCacheModel struct {
	Key       string    `gorm:"type:varchar(255);primary_key"`
	Payload   string    `gorm:"type:jsonb;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for MenuCacheModel
func (MenuCacheModel) TableName() string {
	return "menu_cache"
}
