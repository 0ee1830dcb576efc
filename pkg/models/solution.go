// Package models contains domain types for dealdesk-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Solution represents a reusable service offering, active or archived.
type Solution struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	PainPoints  *string   `json:"pain_points"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
