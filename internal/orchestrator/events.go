package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// EventInput is an event form with its organizers, attendance lists and invitees.
type EventInput struct {
	ID                uuid.UUID            `json:"id"`
	Subject           string               `json:"subject" validate:"required"`
	OrganizerKind     models.OrganizerKind `json:"organizer_kind" validate:"required,oneof=meeting_category category"`
	OrganizerIDs      []uuid.UUID          `json:"organizer_ids" validate:"min=1"`
	Date              string               `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string               `json:"start_time" validate:"required,datetime=15:04"`
	EndTime           string               `json:"end_time" validate:"omitempty,datetime=15:04"`
	Location          string               `json:"location"`
	ExternalAttendees *int                 `json:"external_attendees" validate:"omitempty,min=0"`
	Description       string               `json:"description"`
	Cost              *float64             `json:"cost" validate:"omitempty,min=0"`
	Investment        *float64             `json:"investment" validate:"omitempty,min=0"`
	Revenue           *float64             `json:"revenue" validate:"omitempty,min=0"`
	Cancelled         bool                 `json:"cancelled"`
	InPerson          []uuid.UUID          `json:"in_person"`
	Online            []uuid.UUID          `json:"online"`
	Invitees          []uuid.UUID          `json:"invitees"`
}

// organizerTable returns the join table matching an organizer kind.
func organizerTable(kind models.OrganizerKind) models.LinkTable {
	if kind == models.OrganizerCategory {
		return models.EventCategoryOrganizers
	}
	return models.EventMeetingOrganizers
}

// SaveEvent creates or updates an event. On update every join table of the event is cleared first,
// including both organizer tables, so organizer rows only ever live in the table matching the kind.
func (o *Orchestrator) SaveEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	extra := make(map[string]string)
	timeOrder(in.StartTime, in.EndTime, extra)
	if len(plainLinks(uuid.Nil, in.OrganizerIDs)) == 0 {
		extra["organizer_ids"] = "must have at least 1 item(s)"
	}
	refs := o.references(extra)
	switch in.OrganizerKind {
	case models.OrganizerMeetingCategory:
		refs.categories("organizer_ids", models.CategoryKindMeeting, in.OrganizerIDs)
	case models.OrganizerCategory:
		refs.categories("organizer_ids", models.CategoryKindEvent, in.OrganizerIDs)
	}
	refs.participants("in_person", in.InPerson)
	refs.participants("online", in.Online)
	refs.participants("invitees", in.Invitees)
	if err := o.check(in, extra); err != nil {
		return nil, err
	}
	e := &models.Event{
		ID:                in.ID,
		Subject:           in.Subject,
		Date:              in.Date,
		StartTime:         models.NormalizeClock(in.StartTime),
		EndTime:           models.NormalizeClock(in.EndTime),
		Location:          in.Location,
		ExternalAttendees: in.ExternalAttendees,
		Description:       in.Description,
		Cost:              in.Cost,
		Investment:        in.Investment,
		Revenue:           in.Revenue,
		Cancelled:         in.Cancelled,
	}

	seq := o.begin("save event", scopeEvents)
	defer o.finish(ctx, seq)

	if in.ID != uuid.Nil {
		if err := seq.step(ctx, "update event", func(ctx context.Context) error {
			return o.store.UpdateEvent(ctx, e)
		}); err != nil {
			return nil, err
		}
		for _, t := range eventTables {
			if err := seq.step(ctx, "delete "+t.Name, o.deleteLinks(t, models.ByOwner, e.ID)); err != nil {
				return nil, err
			}
		}
	} else if err := seq.step(ctx, "create event", func(ctx context.Context) error {
		return o.store.CreateEvent(ctx, e)
	}); err != nil {
		return nil, err
	}

	organizers := plainLinks(e.ID, in.OrganizerIDs)
	if err := o.insertLinks(ctx, seq, organizerTable(in.OrganizerKind), organizers); err != nil {
		return nil, err
	}
	if err := o.insertLinks(ctx, seq, models.EventAttendees, attendeeLinks(e.ID, in.InPerson, in.Online)); err != nil {
		return nil, err
	}
	if err := o.insertLinks(ctx, seq, models.EventInvitees, plainLinks(e.ID, in.Invitees)); err != nil {
		return nil, err
	}

	e.OrganizerKind = in.OrganizerKind
	e.OrganizerIDs = make([]uuid.UUID, 0, len(organizers))
	for _, l := range organizers {
		e.OrganizerIDs = append(e.OrganizerIDs, l.TargetID)
	}
	return e, nil
}

// eventTables are the join tables owned by an event, in delete order.
var eventTables = []models.LinkTable{
	models.EventAttendees,
	models.EventInvitees,
	models.EventMeetingOrganizers,
	models.EventCategoryOrganizers,
}

// DeleteEvent removes every join row of the event, then the event.
func (o *Orchestrator) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	seq := o.begin("delete event", scopeEvents)
	defer o.finish(ctx, seq)

	for _, t := range eventTables {
		if err := seq.step(ctx, "delete "+t.Name, o.deleteLinks(t, models.ByOwner, id)); err != nil {
			return err
		}
	}
	return seq.step(ctx, "delete event", func(ctx context.Context) error {
		return o.store.DeleteEvent(ctx, id)
	})
}

// SetEventFlyer records the object key of an uploaded flyer.
func (o *Orchestrator) SetEventFlyer(ctx context.Context, id uuid.UUID, key string) error {
	seq := o.begin("set event flyer", scopeEvents)
	defer o.finish(ctx, seq)

	return seq.step(ctx, "set event flyer", func(ctx context.Context) error {
		return o.store.SetEventFlyer(ctx, id, key)
	})
}
