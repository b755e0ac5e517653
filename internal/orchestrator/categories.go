package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
)

// CategoryInput is a commission or event category form.
type CategoryInput struct {
	ID   uuid.UUID           `json:"id"`
	Kind models.CategoryKind `json:"kind" validate:"required,oneof=meeting_category category"`
	Name string              `json:"name" validate:"required"`
}

// SaveCategory creates or renames a category of either kind.
func (o *Orchestrator) SaveCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := o.check(in, nil); err != nil {
		return nil, err
	}
	c := &models.Category{ID: in.ID, Kind: in.Kind, Name: in.Name}

	seq := o.begin("save category", string(in.Kind))
	defer o.finish(ctx, seq)

	step, write := "create category", o.store.CreateCategory
	if in.ID != uuid.Nil {
		step, write = "update category", o.store.UpdateCategory
	}
	if err := seq.step(ctx, step, func(ctx context.Context) error {
		return write(ctx, c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteMeetingCategory deletes a commission. Meetings referencing it block the delete and nothing is
// removed; memberships and event-organizer links are removed first.
func (o *Orchestrator) DeleteMeetingCategory(ctx context.Context, id uuid.UUID) error {
	meetings, err := o.store.ListMeetingsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("check category meetings: %w", err)
	}
	if len(meetings) > 0 {
		o.logger.Info("category delete blocked",
			zap.String("category_id", id.String()),
			zap.Int("meetings", len(meetings)),
		)
		return &BlockedError{CategoryID: id, Meetings: meetings}
	}

	seq := o.begin("delete meeting category", string(models.CategoryKindMeeting))
	defer o.finish(ctx, seq)

	if err := seq.step(ctx, "delete "+models.ParticipantCategories.Name,
		o.deleteLinks(models.ParticipantCategories, models.ByTarget, id)); err != nil {
		return err
	}
	if err := seq.step(ctx, "delete "+models.EventMeetingOrganizers.Name,
		o.deleteLinks(models.EventMeetingOrganizers, models.ByTarget, id)); err != nil {
		return err
	}
	return seq.step(ctx, "delete category", func(ctx context.Context) error {
		return o.store.DeleteCategory(ctx, models.CategoryKindMeeting, id)
	})
}

// DeleteEventCategory removes the category's organizer links, then the category.
func (o *Orchestrator) DeleteEventCategory(ctx context.Context, id uuid.UUID) error {
	seq := o.begin("delete event category", string(models.CategoryKindEvent))
	defer o.finish(ctx, seq)

	if err := seq.step(ctx, "delete "+models.EventCategoryOrganizers.Name,
		o.deleteLinks(models.EventCategoryOrganizers, models.ByTarget, id)); err != nil {
		return err
	}
	return seq.step(ctx, "delete category", func(ctx context.Context) error {
		return o.store.DeleteCategory(ctx, models.CategoryKindEvent, id)
	})
}
