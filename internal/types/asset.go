package types

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a registered piece of source media. Duration is probed by an
// external ingest process and written here; the engine never inspects
// media files itself.
type Asset struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	MediaType string    `gorm:"column:media_type" json:"media_type"`
	Duration  float64   `gorm:"not null;default:0;column:duration" json:"duration"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Asset) TableName() string {
	return "asset"
}
