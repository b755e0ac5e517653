package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a person tracked by the association (commission member, attendee, invitee).
type Participant struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Role           string    `json:"role"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
