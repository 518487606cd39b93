package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tcgcompanion/backend/pkg/enums"
)

// Card is a user-owned card photo awaiting or holding a catalog match.
type Card struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	ImagePath      string               `gorm:"column:image_path;not null"`
	RefCardID      *uuid.UUID           `gorm:"column:ref_card_id;type:uuid"`
	MatchingStatus enums.MatchingStatus `gorm:"column:matching_status;type:matching_status;not null;default:pending"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
