package models

import "github.com/google/uuid"

// AttendanceMode tags an attendee row.
type AttendanceMode string

const (
	AttendanceInPerson AttendanceMode = "in_person"
	AttendanceOnline   AttendanceMode = "online"
)

// Link is one row of a join table: a pair of foreign keys plus an optional attendance mode.
// Owner is the entity the relation hangs off (participant, meeting, event); Target is the other side.
type Link struct {
	OwnerID  uuid.UUID      `json:"owner_id"`
	TargetID uuid.UUID      `json:"target_id"`
	Mode     AttendanceMode `json:"mode,omitempty"`
}

// LinkTable describes a join table.
type LinkTable struct {
	Name         string
	OwnerColumn  string
	TargetColumn string
	HasMode      bool
}

// Join tables.
var (
	ParticipantCategories   = LinkTable{Name: "participant_categories", OwnerColumn: "participant_id", TargetColumn: "meeting_category_id"}
	MeetingAttendees        = LinkTable{Name: "meeting_attendees", OwnerColumn: "meeting_id", TargetColumn: "participant_id", HasMode: true}
	EventAttendees          = LinkTable{Name: "event_attendees", OwnerColumn: "event_id", TargetColumn: "participant_id", HasMode: true}
	EventInvitees           = LinkTable{Name: "event_invitees", OwnerColumn: "event_id", TargetColumn: "participant_id"}
	EventMeetingOrganizers  = LinkTable{Name: "event_meeting_category_organizers", OwnerColumn: "event_id", TargetColumn: "meeting_category_id"}
	EventCategoryOrganizers = LinkTable{Name: "event_category_organizers", OwnerColumn: "event_id", TargetColumn: "category_id"}
)

// LinkTables lists every join table.
var LinkTables = []LinkTable{
	ParticipantCategories,
	MeetingAttendees,
	EventAttendees,
	EventInvitees,
	EventMeetingOrganizers,
	EventCategoryOrganizers,
}

// LinkSide selects which column a filter applies to.
type LinkSide int

const (
	ByOwner LinkSide = iota
	ByTarget
)

// Column returns the column name for side.
func (t LinkTable) Column(side LinkSide) string {
	if side == ByTarget {
		return t.TargetColumn
	}
	return t.OwnerColumn
}
