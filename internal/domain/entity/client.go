package entity

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a customer of the workshop.
type Client struct {
	ID        uuid.UUID
	Name      string
	Document  string // Tax or identity document number, optional.
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Vehicle represents a customer vehicle serviced by the workshop.
type Vehicle struct {
	ID        uuid.UUID
	Plate     string
	Brand     string
	Model     string
	Year      int
	ClientID  uuid.UUID // Owning client.
	CreatedAt time.Time
	UpdatedAt time.Time
}
