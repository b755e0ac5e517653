package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizerKind says which organizer table holds an event's organizer links.
type OrganizerKind string

const (
	OrganizerMeetingCategory OrganizerKind = "meeting_category"
	OrganizerCategory        OrganizerKind = "category"
	// OrganizerUnresolved marks an event with no organizer link in either table.
	OrganizerUnresolved OrganizerKind = "unresolved"
)

// Event is an association event organized by commissions or event categories.
type Event struct {
	ID                uuid.UUID     `json:"id"`
	Subject           string        `json:"subject"`
	OrganizerKind     OrganizerKind `json:"organizer_kind"`
	OrganizerIDs      []uuid.UUID   `json:"organizer_ids"`
	Date              string        `json:"date"`
	StartTime         string        `json:"start_time"`
	EndTime           string        `json:"end_time,omitempty"`
	Location          string        `json:"location,omitempty"`
	ExternalAttendees *int          `json:"external_attendees,omitempty"`
	Description       string        `json:"description,omitempty"`
	Cost              *float64      `json:"cost,omitempty"`
	Investment        *float64      `json:"investment,omitempty"`
	Revenue           *float64      `json:"revenue,omitempty"`
	Cancelled         bool          `json:"cancelled"`
	FlyerKey          string        `json:"flyer_key,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
