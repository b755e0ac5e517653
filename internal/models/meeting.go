package models

import (
	"time"

	"github.com/google/uuid"
)

// Date and clock layouts used for meeting/event columns.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Meeting is a commission meeting.
type Meeting struct {
	ID                uuid.UUID `json:"id"`
	Subject           string    `json:"subject"`
	CategoryID        uuid.UUID `json:"category_id"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time,omitempty"`
	Location          string    `json:"location,omitempty"`
	ExternalAttendees *int      `json:"external_attendees,omitempty"`
	Description       string    `json:"description,omitempty"`
	Cancelled         bool      `json:"cancelled"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ParseClock parses a clock value. Single-digit hours and a trailing seconds part are accepted.
func ParseClock(v string) (time.Time, bool) {
	for _, layout := range []string{ClockLayout, ClockLayout + ":05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeClock rewrites a clock value as zero-padded HH:MM, the form the database returns.
// Values that do not parse are returned unchanged.
func NormalizeClock(v string) string {
	if t, ok := ParseClock(v); ok {
		return t.Format(ClockLayout)
	}
	return v
}

// ClockBefore reports whether clock a is earlier than clock b. Unparseable values compare as text.
func ClockBefore(a, b string) bool {
	ta, okA := ParseClock(a)
	tb, okB := ParseClock(b)
	if okA && okB {
		return ta.Before(tb)
	}
	return a < b
}

// ScheduledBefore orders activities by date, then start time.
func ScheduledBefore(dateA, startA, dateB, startB string) bool {
	if dateA != dateB {
		return dateA < dateB
	}
	return ClockBefore(startA, startB)
}
