package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// ParticipantInput is a participant form plus its commission memberships.
type ParticipantInput struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name" validate:"required"`
	OrganizationID *string     `json:"organization_id"`
	Role           string      `json:"role"`
	Email          string      `json:"email" validate:"omitempty,email"`
	Phone          string      `json:"phone"`
	CategoryIDs    []uuid.UUID `json:"category_ids"`
}

// SaveParticipant creates or updates a participant and replaces its commission memberships.
func (o *Orchestrator) SaveParticipant(ctx context.Context, in ParticipantInput) (*models.Participant, error) {
	extra := make(map[string]string)
	o.references(extra).categories("category_ids", models.CategoryKindMeeting, in.CategoryIDs)
	if err := o.check(in, extra); err != nil {
		return nil, err
	}
	if in.OrganizationID != nil && *in.OrganizationID == "" {
		in.OrganizationID = nil
	}
	p := &models.Participant{
		ID:             in.ID,
		Name:           in.Name,
		OrganizationID: in.OrganizationID,
		Role:           in.Role,
		Email:          in.Email,
		Phone:          in.Phone,
	}
	update := in.ID != uuid.Nil

	seq := o.begin("save participant", "participants")
	defer o.finish(ctx, seq)

	if update {
		if err := seq.step(ctx, "update participant", func(ctx context.Context) error {
			return o.store.UpdateParticipant(ctx, p)
		}); err != nil {
			return nil, err
		}
		if err := seq.step(ctx, "delete "+models.ParticipantCategories.Name,
			o.deleteLinks(models.ParticipantCategories, models.ByOwner, p.ID)); err != nil {
			return nil, err
		}
	} else if err := seq.step(ctx, "create participant", func(ctx context.Context) error {
		return o.store.CreateParticipant(ctx, p)
	}); err != nil {
		return nil, err
	}

	if err := o.insertLinks(ctx, seq, models.ParticipantCategories, plainLinks(p.ID, in.CategoryIDs)); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteParticipant removes a participant from every join table, then deletes the row.
func (o *Orchestrator) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	seq := o.begin("delete participant", "participants")
	defer o.finish(ctx, seq)

	for _, dep := range []struct {
		table models.LinkTable
		side  models.LinkSide
	}{
		{models.ParticipantCategories, models.ByOwner},
		{models.MeetingAttendees, models.ByTarget},
		{models.EventAttendees, models.ByTarget},
		{models.EventInvitees, models.ByTarget},
	} {
		if err := seq.step(ctx, "delete "+dep.table.Name, o.deleteLinks(dep.table, dep.side, id)); err != nil {
			return err
		}
	}
	return seq.step(ctx, "delete participant", func(ctx context.Context) error {
		return o.store.DeleteParticipant(ctx, id)
	})
}
