package models

import (
	"time"

	"github.com/google/uuid"
)

// TcgSet is a catalog set ingested from the upstream card database.
type TcgSet struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TcgID     string    `gorm:"column:tcg_id;not null;unique"`
	Name      string    `gorm:"column:name;not null"`
	Year      *int      `gorm:"column:year"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
