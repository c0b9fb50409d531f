package types

import (
	"time"

	"github.com/google/uuid"
)

// Project owns a story canvas. Each open project gets its own in-memory
// graph session and command log; units belong to exactly one project.
type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null;column:title" json:"title"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string {
	return "project"
}
