package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles the UUID primary key and creation timestamp shared by
// every persisted record.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Hook Before Create to generate a UUID when the caller did not supply one.
// The persistence gateway assigns IDs up front so that a record keeps the
// same identity when a remote write falls back to the local store.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now()
	}
	return
}
