package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryKind distinguishes the two classification tables.
type CategoryKind string

const (
	// CategoryKindMeeting is a commission ("meeting category").
	CategoryKindMeeting CategoryKind = "meeting_category"
	// CategoryKindEvent is a general event category.
	CategoryKindEvent CategoryKind = "category"
)

// Valid reports whether k is one of the known kinds.
func (k CategoryKind) Valid() bool {
	return k == CategoryKindMeeting || k == CategoryKindEvent
}

// Category is a named classification group (commission or event category).
type Category struct {
	ID        uuid.UUID    `json:"id"`
	Kind      CategoryKind `json:"kind"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
}
