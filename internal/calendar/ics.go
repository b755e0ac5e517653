// Package calendar renders meetings and events as a subscribable iCalendar feed.
package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//CIEC.Now//Agenda//ES"

// Item types.
const (
	TypeMeeting = "meeting"
	TypeEvent   = "event"
)

// Item is one calendar entry. End may be zero; an all-day item only uses the dates of Start and End.
type Item struct {
	UID         string    `json:"uid"`
	Type        string    `json:"type"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitempty"`
	Cancelled   bool      `json:"cancelled"`
}

// Options controls the feed header.
type Options struct {
	Name  string
	Stamp time.Time
}

// Format renders items as a VCALENDAR document with one VEVENT per item in input order.
func Format(items []Item, opts Options) string {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, it := range items {
		ev := cal.AddEvent(it.UID)
		ev.SetDtStampTime(stamp)
		if it.AllDay {
			end := it.End
			if end.IsZero() || !end.After(it.Start) {
				end = it.Start
			}
			// DTEND of a date value is exclusive
			ev.SetAllDayStartAt(it.Start)
			ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(it.Start)
			if !it.End.IsZero() {
				ev.SetEndAt(it.End)
			}
		}
		ev.SetSummary(it.Subject)
		if it.Description != "" {
			ev.SetDescription(it.Description)
		}
		if it.Location != "" {
			ev.SetLocation(it.Location)
		}
		if it.Type != "" {
			ev.AddProperty(ics.ComponentPropertyCategories, it.Type)
		}
		if it.Cancelled {
			ev.SetStatus(ics.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}
