package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

// Activity kinds.
const (
	KindMeeting = "meeting"
	KindEvent   = "event"
)

// Period is an inclusive date range. A zero bound is open.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParsePeriod reads YYYY-MM-DD bounds; empty strings leave a bound open.
func ParsePeriod(from, to string) (Period, error) {
	var p Period
	var err error
	if from != "" {
		if p.From, err = time.Parse(models.DateLayout, from); err != nil {
			return Period{}, fmt.Errorf("invalid from date %q", from)
		}
	}
	if to != "" {
		if p.To, err = time.Parse(models.DateLayout, to); err != nil {
			return Period{}, fmt.Errorf("invalid to date %q", to)
		}
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return Period{}, fmt.Errorf("period ends before it starts")
	}
	return p, nil
}

// Contains reports whether a YYYY-MM-DD date falls in the period. Unparseable dates never do.
func (p Period) Contains(date string) bool {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && d.After(p.To) {
		return false
	}
	return true
}

// Label renders the period for headings and file names.
func (p Period) Label() string {
	from, to := "inicio", "hoy"
	if !p.From.IsZero() {
		from = p.From.Format(models.DateLayout)
	}
	if !p.To.IsZero() {
		to = p.To.Format(models.DateLayout)
	}
	return from + "_" + to
}

// Activity is a meeting or an event flattened for reports.
type Activity struct {
	ID         uuid.UUID   `json:"id"`
	Kind       string      `json:"kind"`
	Subject    string      `json:"subject"`
	Date       string      `json:"date"`
	StartTime  string      `json:"start_time"`
	EndTime    string      `json:"end_time,omitempty"`
	Location   string      `json:"location,omitempty"`
	Organizers []string    `json:"organizers"`
	Committees []uuid.UUID `json:"-"`
	InPerson   int         `json:"in_person"`
	Online     int         `json:"online"`
	External   int         `json:"external"`
	Cost       float64     `json:"cost,omitempty"`
	Investment float64     `json:"investment,omitempty"`
	Revenue    float64     `json:"revenue,omitempty"`
	Cancelled  bool        `json:"cancelled"`
}

// Attendance is the total of both modes plus external attendees.
func (a Activity) Attendance() int {
	return a.InPerson + a.Online + a.External
}

// Activities merges the meetings and events in the period, sorted by date then start time.
func Activities(s snapshot.State, p Period) []Activity {
	acts := make([]Activity, 0, len(s.Meetings)+len(s.Events))
	for _, m := range s.Meetings {
		if !p.Contains(m.Date) {
			continue
		}
		a := Activity{
			ID: m.ID, Kind: KindMeeting, Subject: m.Subject, Date: m.Date,
			StartTime: m.StartTime, EndTime: m.EndTime, Location: m.Location,
			Organizers: []string{}, Committees: []uuid.UUID{m.CategoryID},
			External: deref(m.ExternalAttendees), Cancelled: m.Cancelled,
		}
		if c, ok := s.Category(models.CategoryKindMeeting, m.CategoryID); ok {
			a.Organizers = []string{c.Name}
		}
		inPerson, online := s.Attendees(models.MeetingAttendees, m.ID)
		a.InPerson, a.Online = len(inPerson), len(online)
		acts = append(acts, a)
	}
	for _, e := range s.Events {
		if !p.Contains(e.Date) {
			continue
		}
		a := Activity{
			ID: e.ID, Kind: KindEvent, Subject: e.Subject, Date: e.Date,
			StartTime: e.StartTime, EndTime: e.EndTime, Location: e.Location,
			Organizers: s.OrganizerNames(e),
			External:   deref(e.ExternalAttendees), Cancelled: e.Cancelled,
			Cost: derefF(e.Cost), Investment: derefF(e.Investment), Revenue: derefF(e.Revenue),
		}
		if a.Organizers == nil {
			a.Organizers = []string{}
		}
		if e.OrganizerKind == models.OrganizerMeetingCategory {
			a.Committees = e.OrganizerIDs
		}
		inPerson, online := s.Attendees(models.EventAttendees, e.ID)
		a.InPerson, a.Online = len(inPerson), len(online)
		acts = append(acts, a)
	}
	sort.SliceStable(acts, func(i, j int) bool {
		return models.ScheduledBefore(acts[i].Date, acts[i].StartTime, acts[j].Date, acts[j].StartTime)
	})
	return acts
}

var activityHeader = []string{
	"Tipo", "Fecha", "Hora inicio", "Hora fin", "Asunto", "Organiza", "Lugar",
	"Presencial", "En línea", "Externos", "Costo", "Inversión", "Ingresos", "Estado",
}

// ActivityRows renders activities as CSV rows with a header.
func ActivityRows(acts []Activity) [][]string {
	rows := make([][]string, 0, len(acts)+1)
	rows = append(rows, activityHeader)
	for _, a := range acts {
		kind, status := "Reunión", "Activa"
		if a.Kind == KindEvent {
			kind = "Evento"
		}
		if a.Cancelled {
			status = "Cancelada"
		}
		rows = append(rows, []string{
			kind, a.Date, a.StartTime, a.EndTime, a.Subject, strings.Join(a.Organizers, ", "), a.Location,
			fmt.Sprint(a.InPerson), fmt.Sprint(a.Online), fmt.Sprint(a.External),
			money(a.Cost), money(a.Investment), money(a.Revenue), status,
		})
	}
	return rows
}

func money(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefF(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
