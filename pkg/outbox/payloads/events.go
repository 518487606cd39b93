package payloads

import (
	"github.com/google/uuid"
)

// CardCreatedEvent signals a freshly uploaded owned card awaiting matching.
type CardCreatedEvent struct {
	CardID    uuid.UUID `json:"card_id"`
	UserID    uuid.UUID `json:"user_id"`
	ImagePath string    `json:"image_path"`
}
