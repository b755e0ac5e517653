// Package orchestrator turns one user intent into an ordered sequence of store writes followed by a
// snapshot refresh. Steps run strictly in order and are never rolled back.
package orchestrator

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
)

// Refresher re-reads the snapshot after a write. Snapshot is also the source that referenced IDs
// are checked against before anything is written.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	RefreshEvents(ctx context.Context) error
	Snapshot() snapshot.State
}

// ChangeNotifier tells other server instances that the data changed.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, scope string) error
}

// Orchestrator runs write sequences against the store.
type Orchestrator struct {
	store     store.Store
	refresher Refresher
	notifier  ChangeNotifier
	validate  *validator.Validate
	logger    *zap.Logger
}

// New creates an Orchestrator. refresher and notifier may be nil; without a refresher no reference
// checks run and nothing is re-read after a write.
func New(st store.Store, refresher Refresher, notifier ChangeNotifier, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:     st,
		refresher: refresher,
		notifier:  notifier,
		validate:  newValidator(),
		logger:    logger,
	}
}

// scopeEvents marks sequences that only touch the events table and the tables it owns, so the
// targeted event refresh is enough.
const scopeEvents = "events"

// sequence records the steps of one write operation.
type sequence struct {
	op        string
	scope     string
	committed []string
	logger    *zap.Logger
}

func (o *Orchestrator) begin(op, scope string) *sequence {
	return &sequence{op: op, scope: scope, logger: o.logger.With(zap.String("op", op))}
}

func (s *sequence) step(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		s.logger.Error("write step failed",
			zap.String("step", name),
			zap.Strings("committed", s.committed),
			zap.Error(err),
		)
		return &StepError{Op: s.op, Failed: name, Committed: append([]string(nil), s.committed...), Err: err}
	}
	s.committed = append(s.committed, name)
	s.logger.Debug("write step committed", zap.String("step", name))
	return nil
}

// finish refreshes the snapshot and notifies other instances once anything was committed.
// Refresh failures are logged by the fetcher and do not fail the write.
func (o *Orchestrator) finish(ctx context.Context, s *sequence) {
	if len(s.committed) == 0 {
		return
	}
	if o.refresher != nil {
		if s.scope == scopeEvents {
			_ = o.refresher.RefreshEvents(ctx)
		} else {
			_ = o.refresher.RefreshAll(ctx)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.PublishChange(ctx, s.scope); err != nil {
			o.logger.Warn("publish change failed", zap.String("scope", s.scope), zap.Error(err))
		}
	}
	s.logger.Info("write sequence finished", zap.Strings("committed", s.committed))
}

// deleteLinks is a step that removes the rows of table whose side column equals id.
func (o *Orchestrator) deleteLinks(table models.LinkTable, side models.LinkSide, id uuid.UUID) func(context.Context) error {
	return func(ctx context.Context) error {
		return o.store.DeleteLinks(ctx, table, side, id)
	}
}

// insertLinks runs an insert step unless links is empty.
func (o *Orchestrator) insertLinks(ctx context.Context, s *sequence, table models.LinkTable, links []models.Link) error {
	if len(links) == 0 {
		return nil
	}
	return s.step(ctx, "insert "+table.Name, func(ctx context.Context) error {
		return o.store.InsertLinks(ctx, table, links)
	})
}

// plainLinks builds de-duplicated rows from owner to each target.
func plainLinks(owner uuid.UUID, targets []uuid.UUID) []models.Link {
	seen := make(map[uuid.UUID]bool, len(targets))
	var out []models.Link
	for _, t := range targets {
		if t == uuid.Nil || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, models.Link{OwnerID: owner, TargetID: t})
	}
	return out
}

// attendeeLinks builds de-duplicated attendee rows. A participant listed in both modes keeps in_person.
func attendeeLinks(owner uuid.UUID, inPerson, online []uuid.UUID) []models.Link {
	seen := make(map[uuid.UUID]bool, len(inPerson)+len(online))
	var out []models.Link
	add := func(ids []uuid.UUID, mode models.AttendanceMode) {
		for _, id := range ids {
			if id == uuid.Nil || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, models.Link{OwnerID: owner, TargetID: id, Mode: mode})
		}
	}
	add(inPerson, models.AttendanceInPerson)
	add(online, models.AttendanceOnline)
	return out
}
