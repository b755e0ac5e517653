// Package snapshot holds full in-memory copies of every entity and join table.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// State is one consistent read of the data store. Its slices are replaced wholesale on refresh and
// must be treated as read-only by callers.
type State struct {
	Participants      []models.Participant     `json:"participants"`
	Organizations     []models.Organization    `json:"organizations"`
	MeetingCategories []models.Category        `json:"meeting_categories"`
	EventCategories   []models.Category        `json:"event_categories"`
	Meetings          []models.Meeting         `json:"meetings"`
	Events            []models.Event           `json:"events"`
	Links             map[string][]models.Link `json:"links"`
	RefreshedAt       time.Time                `json:"refreshed_at"`
}

func emptyState() State {
	s := State{
		Participants:      []models.Participant{},
		Organizations:     []models.Organization{},
		MeetingCategories: []models.Category{},
		EventCategories:   []models.Category{},
		Meetings:          []models.Meeting{},
		Events:            []models.Event{},
		Links:             make(map[string][]models.Link, len(models.LinkTables)),
	}
	for _, t := range models.LinkTables {
		s.Links[t.Name] = []models.Link{}
	}
	return s
}

// clone copies the top-level containers so a later swap never shows through to a reader.
func (s State) clone() State {
	links := make(map[string][]models.Link, len(s.Links))
	for k, v := range s.Links {
		links[k] = v
	}
	s.Links = links
	return s
}

// LinksOf returns the rows of table whose owner (or target) is id.
func (s State) LinksOf(table models.LinkTable, side models.LinkSide, id uuid.UUID) []models.Link {
	var out []models.Link
	for _, l := range s.Links[table.Name] {
		key := l.OwnerID
		if side == models.ByTarget {
			key = l.TargetID
		}
		if key == id {
			out = append(out, l)
		}
	}
	return out
}

// Participant looks up a participant by id.
func (s State) Participant(id uuid.UUID) (models.Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

// Organization looks up a company by id.
func (s State) Organization(id string) (models.Organization, bool) {
	for _, o := range s.Organizations {
		if o.ID == id {
			return o, true
		}
	}
	return models.Organization{}, false
}

// Categories returns the categories of a kind.
func (s State) Categories(kind models.CategoryKind) []models.Category {
	if kind == models.CategoryKindEvent {
		return s.EventCategories
	}
	return s.MeetingCategories
}

// Category looks up a category by kind and id.
func (s State) Category(kind models.CategoryKind, id uuid.UUID) (models.Category, bool) {
	for _, c := range s.Categories(kind) {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// Meeting looks up a meeting by id.
func (s State) Meeting(id uuid.UUID) (models.Meeting, bool) {
	for _, m := range s.Meetings {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meeting{}, false
}

// Event looks up an event by id.
func (s State) Event(id uuid.UUID) (models.Event, bool) {
	for _, e := range s.Events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// OrganizerNames returns the names of an event's organizers in link order. Unknown ids are skipped.
func (s State) OrganizerNames(e models.Event) []string {
	kind := models.CategoryKindMeeting
	switch e.OrganizerKind {
	case models.OrganizerCategory:
		kind = models.CategoryKindEvent
	case models.OrganizerMeetingCategory:
	default:
		return nil
	}
	names := make([]string, 0, len(e.OrganizerIDs))
	for _, id := range e.OrganizerIDs {
		if c, ok := s.Category(kind, id); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// Attendees splits the attendee rows of a meeting or event by attendance mode.
func (s State) Attendees(table models.LinkTable, ownerID uuid.UUID) (inPerson, online []uuid.UUID) {
	for _, l := range s.LinksOf(table, models.ByOwner, ownerID) {
		if l.Mode == models.AttendanceOnline {
			online = append(online, l.TargetID)
		} else {
			inPerson = append(inPerson, l.TargetID)
		}
	}
	return inPerson, online
}

// Targets returns the target ids of the rows owned by ownerID.
func (s State) Targets(table models.LinkTable, ownerID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range s.LinksOf(table, models.ByOwner, ownerID) {
		ids = append(ids, l.TargetID)
	}
	return ids
}
