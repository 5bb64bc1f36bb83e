package entities

import (
	"time"
)

// Laboratory represents a partner laboratory whose price catalog is ingested.
type Laboratory struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"` // short internal identifier, e.g. "BIOLAB"
	Contact   string    `json:"contact" db:"contact"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
