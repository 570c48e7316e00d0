package notification

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken is one registered push target for a viewer.
type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

// Notification is a persisted slot-call decision message for a viewer.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClerkID   string    `json:"-" db:"clerk_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
