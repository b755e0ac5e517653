package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// MeetingInput is a meeting form plus its two attendance lists.
type MeetingInput struct {
	ID                uuid.UUID   `json:"id"`
	Subject           string      `json:"subject" validate:"required"`
	CategoryID        uuid.UUID   `json:"category_id"`
	Date              string      `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string      `json:"start_time" validate:"required,datetime=15:04"`
	EndTime           string      `json:"end_time" validate:"omitempty,datetime=15:04"`
	Location          string      `json:"location"`
	ExternalAttendees *int        `json:"external_attendees" validate:"omitempty,min=0"`
	Description       string      `json:"description"`
	Cancelled         bool        `json:"cancelled"`
	InPerson          []uuid.UUID `json:"in_person"`
	Online            []uuid.UUID `json:"online"`
}

// timeOrder checks that an end time, when set, is later than the start time. Values that do not
// parse are left to the datetime rule.
func timeOrder(start, end string, fields map[string]string) {
	from, okFrom := models.ParseClock(start)
	to, okTo := models.ParseClock(end)
	if okFrom && okTo && !to.After(from) {
		fields["end_time"] = "must be later than start_time"
	}
}

// SaveMeeting creates or updates a meeting and replaces its attendee rows.
func (o *Orchestrator) SaveMeeting(ctx context.Context, in MeetingInput) (*models.Meeting, error) {
	extra := make(map[string]string)
	if in.CategoryID == uuid.Nil {
		extra["category_id"] = "is required"
	}
	timeOrder(in.StartTime, in.EndTime, extra)
	refs := o.references(extra)
	refs.categories("category_id", models.CategoryKindMeeting, []uuid.UUID{in.CategoryID})
	refs.participants("in_person", in.InPerson)
	refs.participants("online", in.Online)
	if err := o.check(in, extra); err != nil {
		return nil, err
	}
	m := &models.Meeting{
		ID:                in.ID,
		Subject:           in.Subject,
		CategoryID:        in.CategoryID,
		Date:              in.Date,
		StartTime:         models.NormalizeClock(in.StartTime),
		EndTime:           models.NormalizeClock(in.EndTime),
		Location:          in.Location,
		ExternalAttendees: in.ExternalAttendees,
		Description:       in.Description,
		Cancelled:         in.Cancelled,
	}

	seq := o.begin("save meeting", "meetings")
	defer o.finish(ctx, seq)

	if in.ID != uuid.Nil {
		if err := seq.step(ctx, "update meeting", func(ctx context.Context) error {
			return o.store.UpdateMeeting(ctx, m)
		}); err != nil {
			return nil, err
		}
		if err := seq.step(ctx, "delete "+models.MeetingAttendees.Name,
			o.deleteLinks(models.MeetingAttendees, models.ByOwner, m.ID)); err != nil {
			return nil, err
		}
	} else if err := seq.step(ctx, "create meeting", func(ctx context.Context) error {
		return o.store.CreateMeeting(ctx, m)
	}); err != nil {
		return nil, err
	}

	if err := o.insertLinks(ctx, seq, models.MeetingAttendees, attendeeLinks(m.ID, in.InPerson, in.Online)); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMeeting removes the attendee rows, then the meeting.
func (o *Orchestrator) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	seq := o.begin("delete meeting", "meetings")
	defer o.finish(ctx, seq)

	if err := seq.step(ctx, "delete "+models.MeetingAttendees.Name,
		o.deleteLinks(models.MeetingAttendees, models.ByOwner, id)); err != nil {
		return err
	}
	return seq.step(ctx, "delete meeting", func(ctx context.Context) error {
		return o.store.DeleteMeeting(ctx, id)
	})
}
