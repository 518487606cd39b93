package models

import (
	"time"

	"github.com/google/uuid"
)

// RefCard is a catalog card. TcgID is the upstream natural key and the upsert
// conflict target; SetYear is denormalized from the owning set so candidate
// searches stay single-table.
type RefCard struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TcgID      string    `gorm:"column:tcg_id;not null;unique"`
	TcgLocalID string    `gorm:"column:tcg_local_id;not null"`
	Name       string    `gorm:"column:name;not null"`
	ImageURL   *string   `gorm:"column:image_url"`
	SetID      uuid.UUID `gorm:"column:set_id;type:uuid;not null"`
	SetName    string    `gorm:"column:set_name;not null"`
	SetYear    *int      `gorm:"column:set_year"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
