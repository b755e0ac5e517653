package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

const uidDomain = "@ciecnow"

// Items flattens the snapshot's meetings and events dated on or after since, ordered by start. Dates
// and clock times are read in loc.
func Items(s snapshot.State, since time.Time, loc *time.Location) []Item {
	if loc == nil {
		loc = time.UTC
	}
	floor := time.Date(since.In(loc).Year(), since.In(loc).Month(), since.In(loc).Day(), 0, 0, 0, 0, loc)

	var items []Item
	for _, m := range s.Meetings {
		it, ok := timed(m.Date, m.StartTime, m.EndTime, loc)
		if !ok || it.Start.Before(floor) {
			continue
		}
		it.UID = m.ID.String() + uidDomain
		it.Type = TypeMeeting
		it.Subject = m.Subject
		it.Location = m.Location
		it.Cancelled = m.Cancelled
		var desc []string
		if c, ok := s.Category(models.CategoryKindMeeting, m.CategoryID); ok {
			desc = append(desc, "Comisión: "+c.Name)
		}
		if m.Description != "" {
			desc = append(desc, m.Description)
		}
		it.Description = strings.Join(desc, "\n")
		items = append(items, it)
	}
	for _, e := range s.Events {
		it, ok := timed(e.Date, e.StartTime, e.EndTime, loc)
		if !ok || it.Start.Before(floor) {
			continue
		}
		it.UID = e.ID.String() + uidDomain
		it.Type = TypeEvent
		it.Subject = e.Subject
		it.Location = e.Location
		it.Cancelled = e.Cancelled
		var desc []string
		if names := s.OrganizerNames(e); len(names) > 0 {
			desc = append(desc, "Organiza: "+strings.Join(names, ", "))
		}
		if e.Description != "" {
			desc = append(desc, e.Description)
		}
		it.Description = strings.Join(desc, "\n")
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		return items[i].Subject < items[j].Subject
	})
	return items
}

// timed parses a date and optional clock times. A missing start time makes the item all-day; an end
// time that does not follow the start is dropped.
func timed(date, start, end string, loc *time.Location) (Item, bool) {
	day, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return Item{}, false
	}
	if start == "" {
		return Item{AllDay: true, Start: day}, true
	}
	from, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, date+" "+clock(start), loc)
	if err != nil {
		return Item{AllDay: true, Start: day}, true
	}
	it := Item{Start: from}
	if end != "" {
		if to, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, date+" "+clock(end), loc); err == nil && to.After(from) {
			it.End = to
		}
	}
	return it, true
}

// clock trims a "15:04:05" column value to "15:04".
func clock(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}
