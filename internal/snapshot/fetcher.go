package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/store"
)

// Fetcher owns the in-memory State and refreshes it from the store.
type Fetcher struct {
	store  store.Store
	logger *zap.Logger

	mu    sync.RWMutex
	state State
	hooks []func(State)
	now   func() time.Time

	// gen numbers refreshes in the order their reads start; applied holds, per collection, the
	// generation of the read currently in state.
	gen     uint64
	applied map[string]uint64
}

// New creates a Fetcher with an empty State. Nothing is read until RefreshAll is called.
func New(st store.Store, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{store: st, logger: logger, state: emptyState(), now: time.Now, applied: make(map[string]uint64)}
}

// Snapshot returns the current State.
func (f *Fetcher) Snapshot() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.clone()
}

// OnRefresh registers fn to be called with the new State after every refresh.
func (f *Fetcher) OnRefresh(fn func(State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fn)
}

// apply mutates a State with the result of one successful load.
type apply func(*State)

type loader struct {
	name string
	load func(ctx context.Context) (apply, error)
}

func (f *Fetcher) loaders() []loader {
	ls := []loader{
		{"participants", func(ctx context.Context) (apply, error) {
			list, err := f.store.ListParticipants(ctx)
			return func(s *State) { s.Participants = nonNil(list) }, err
		}},
		{"organizations", func(ctx context.Context) (apply, error) {
			list, err := f.store.ListOrganizations(ctx)
			return func(s *State) { s.Organizations = nonNil(list) }, err
		}},
		{"meeting_categories", func(ctx context.Context) (apply, error) {
			list, err := f.store.ListCategories(ctx, models.CategoryKindMeeting)
			return func(s *State) { s.MeetingCategories = nonNil(list) }, err
		}},
		{"event_categories", func(ctx context.Context) (apply, error) {
			list, err := f.store.ListCategories(ctx, models.CategoryKindEvent)
			return func(s *State) { s.EventCategories = nonNil(list) }, err
		}},
		{"meetings", func(ctx context.Context) (apply, error) {
			list, err := f.store.ListMeetings(ctx)
			return func(s *State) { s.Meetings = nonNil(list) }, err
		}},
		{"events", f.loadEvents},
	}
	for _, t := range []models.LinkTable{
		models.ParticipantCategories,
		models.MeetingAttendees,
		models.EventAttendees,
		models.EventInvitees,
	} {
		ls = append(ls, f.linkLoader(t))
	}
	return ls
}

func (f *Fetcher) linkLoader(t models.LinkTable) loader {
	return loader{t.Name, func(ctx context.Context) (apply, error) {
		list, err := f.store.ListLinks(ctx, t)
		return func(s *State) { s.Links[t.Name] = nonNil(list) }, err
	}}
}

// RefreshAll reads every entity and join table concurrently. A failed read is logged and leaves the
// previous collection in place; the joined errors are returned for callers that report them.
func (f *Fetcher) RefreshAll(ctx context.Context) error {
	return f.refresh(ctx, f.loaders())
}

// RefreshEvents re-reads events together with both organizer tables and the event attendance and
// invitee tables. Participants and categories are left as they are.
func (f *Fetcher) RefreshEvents(ctx context.Context) error {
	return f.refresh(ctx, []loader{
		{"events", f.loadEvents},
		f.linkLoader(models.EventAttendees),
		f.linkLoader(models.EventInvitees),
	})
}

// refresh runs the loaders concurrently and applies their results. A collection already replaced
// by a refresh that started later is not overwritten.
func (f *Fetcher) refresh(ctx context.Context, ls []loader) error {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	results := make([]apply, len(ls))
	errs := make([]error, len(ls))

	var wg sync.WaitGroup
	for i, l := range ls {
		wg.Add(1)
		go func(i int, l loader) {
			defer wg.Done()
			fn, err := l.load(ctx)
			if err != nil {
				f.logger.Error("snapshot read failed", zap.String("collection", l.name), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", l.name, err)
				return
			}
			results[i] = fn
		}(i, l)
	}
	wg.Wait()

	f.mu.Lock()
	next := f.state.clone()
	for i, fn := range results {
		if fn == nil {
			continue
		}
		if f.applied[ls[i].name] > gen {
			f.logger.Debug("stale snapshot read skipped", zap.String("collection", ls[i].name), zap.Uint64("generation", gen))
			continue
		}
		fn(&next)
		f.applied[ls[i].name] = gen
	}
	next.RefreshedAt = f.now()
	f.state = next
	hooks := append([]func(State){}, f.hooks...)
	f.mu.Unlock()

	for _, h := range hooks {
		h(next.clone())
	}
	return errors.Join(errs...)
}

// loadEvents reads events and both organizer tables and resolves each event's organizer kind.
func (f *Fetcher) loadEvents(ctx context.Context) (apply, error) {
	events, err := f.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	byMeetingCategory, err := f.store.ListLinks(ctx, models.EventMeetingOrganizers)
	if err != nil {
		return nil, err
	}
	byCategory, err := f.store.ListLinks(ctx, models.EventCategoryOrganizers)
	if err != nil {
		return nil, err
	}
	resolved := ResolveOrganizers(events, byMeetingCategory, byCategory, f.logger)
	return func(s *State) {
		s.Events = resolved
		s.Links[models.EventMeetingOrganizers.Name] = nonNil(byMeetingCategory)
		s.Links[models.EventCategoryOrganizers.Name] = nonNil(byCategory)
	}, nil
}

// ResolveOrganizers sets OrganizerKind and OrganizerIDs on each event. A link in the meeting-category
// organizer table wins; otherwise the event-category table is used. An event with neither gets
// OrganizerUnresolved and a warning is logged.
func ResolveOrganizers(events []models.Event, byMeetingCategory, byCategory []models.Link, logger *zap.Logger) []models.Event {
	if logger == nil {
		logger = zap.NewNop()
	}
	group := func(links []models.Link) map[uuid.UUID][]uuid.UUID {
		m := make(map[uuid.UUID][]uuid.UUID)
		for _, l := range links {
			m[l.OwnerID] = append(m[l.OwnerID], l.TargetID)
		}
		return m
	}
	meetingOrgs, categoryOrgs := group(byMeetingCategory), group(byCategory)

	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		switch {
		case len(meetingOrgs[e.ID]) > 0:
			e.OrganizerKind = models.OrganizerMeetingCategory
			e.OrganizerIDs = meetingOrgs[e.ID]
		case len(categoryOrgs[e.ID]) > 0:
			e.OrganizerKind = models.OrganizerCategory
			e.OrganizerIDs = categoryOrgs[e.ID]
		default:
			e.OrganizerKind = models.OrganizerUnresolved
			e.OrganizerIDs = []uuid.UUID{}
			logger.Warn("event has no organizer link", zap.String("event_id", e.ID.String()), zap.String("subject", e.Subject))
		}
		out = append(out, e)
	}
	return out
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
