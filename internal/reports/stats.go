package reports

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

// CategoryCount is the number of meetings a commission held.
type CategoryCount struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Meetings   int       `json:"meetings"`
}

// AttendeeCount is how many activities a participant attended.
type AttendeeCount struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	Attended      int       `json:"attended"`
}

// Stats are the dashboard figures for a period.
type Stats struct {
	Summary            Summary         `json:"summary"`
	MeetingsByCategory []CategoryCount `json:"meetings_by_category"`
	TopAttendees       []AttendeeCount `json:"top_attendees"`
}

// ComputeStats aggregates the period. Cancelled activities count in the summary but not in attendance
// rankings; top limits the attendee list.
func ComputeStats(s snapshot.State, p Period, top int) Stats {
	acts := Activities(s, p)
	st := Stats{
		Summary:            Summarize(acts, p),
		MeetingsByCategory: []CategoryCount{},
		TopAttendees:       []AttendeeCount{},
	}

	perCategory := make(map[uuid.UUID]int)
	attended := make(map[uuid.UUID]int)
	for _, a := range acts {
		table := models.EventAttendees
		if a.Kind == KindMeeting {
			table = models.MeetingAttendees
			perCategory[a.Committees[0]]++
		}
		if a.Cancelled {
			continue
		}
		for _, id := range s.Targets(table, a.ID) {
			attended[id]++
		}
	}

	for _, c := range s.MeetingCategories {
		st.MeetingsByCategory = append(st.MeetingsByCategory, CategoryCount{CategoryID: c.ID, Name: c.Name, Meetings: perCategory[c.ID]})
	}
	sort.SliceStable(st.MeetingsByCategory, func(i, j int) bool {
		return st.MeetingsByCategory[i].Meetings > st.MeetingsByCategory[j].Meetings
	})

	for id, n := range attended {
		name := ""
		if p, ok := s.Participant(id); ok {
			name = p.Name
		}
		st.TopAttendees = append(st.TopAttendees, AttendeeCount{ParticipantID: id, Name: name, Attended: n})
	}
	sort.Slice(st.TopAttendees, func(i, j int) bool {
		a, b := st.TopAttendees[i], st.TopAttendees[j]
		if a.Attended != b.Attended {
			return a.Attended > b.Attended
		}
		return a.Name < b.Name
	})
	if top > 0 && len(st.TopAttendees) > top {
		st.TopAttendees = st.TopAttendees[:top]
	}
	return st
}
