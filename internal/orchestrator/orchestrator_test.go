package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
)

type recordingNotifier struct {
	scopes []string
}

func (n *recordingNotifier) PublishChange(ctx context.Context, scope string) error {
	n.scopes = append(n.scopes, scope)
	return nil
}

type fixture struct {
	mem      *store.Memory
	fetcher  *snapshot.Fetcher
	notifier *recordingNotifier
	orch     *Orchestrator
}

// countingRefresher records which refresh each write sequence asked for.
type countingRefresher struct {
	*snapshot.Fetcher
	all, events int
}

func (r *countingRefresher) RefreshAll(ctx context.Context) error {
	r.all++
	return r.Fetcher.RefreshAll(ctx)
}

func (r *countingRefresher) RefreshEvents(ctx context.Context) error {
	r.events++
	return r.Fetcher.RefreshEvents(ctx)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	f := &fixture{mem: mem, fetcher: snapshot.New(mem, nil), notifier: &recordingNotifier{}}
	f.orch = New(mem, f.fetcher, f.notifier, nil)
	return f
}

func (f *fixture) commission(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.orch.SaveCategory(context.Background(), CategoryInput{Kind: models.CategoryKindMeeting, Name: name})
	require.NoError(t, err)
	return *c
}

func (f *fixture) participant(t *testing.T, name string, categories ...uuid.UUID) models.Participant {
	t.Helper()
	p, err := f.orch.SaveParticipant(context.Background(), ParticipantInput{Name: name, CategoryIDs: categories})
	require.NoError(t, err)
	return *p
}

func targets(links []models.Link) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		out = append(out, l.TargetID)
	}
	return out
}

func TestSaveParticipantReplacesMemberships(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.commission(t, "A"), f.commission(t, "B"), f.commission(t, "C")
	p1 := f.participant(t, "P1", a.ID, b.ID)

	_, err := f.orch.SaveParticipant(ctx, ParticipantInput{ID: p1.ID, Name: "P1", CategoryIDs: []uuid.UUID{b.ID, c.ID, c.ID}})
	require.NoError(t, err)

	links, err := f.mem.ListLinks(ctx, models.ParticipantCategories)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, targets(links))

	s := f.fetcher.Snapshot()
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, s.Targets(models.ParticipantCategories, p1.ID))
}

func TestSaveParticipantValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SaveParticipant(context.Background(), ParticipantInput{Email: "not-an-email"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Empty(t, f.notifier.scopes, "no write happened")
}

func TestDeleteParticipantRemovesEveryJoinRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.commission(t, "A")
	p := f.participant(t, "Ana", a.ID)
	other := f.participant(t, "Luis")

	m, err := f.orch.SaveMeeting(ctx, MeetingInput{
		Subject: "Mesa", CategoryID: a.ID, Date: "2024-03-01", StartTime: "09:00",
		InPerson: []uuid.UUID{p.ID}, Online: []uuid.UUID{other.ID},
	})
	require.NoError(t, err)
	_, err = f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{a.ID},
		Date: "2024-03-05", StartTime: "10:00", Online: []uuid.UUID{p.ID}, Invitees: []uuid.UUID{p.ID, other.ID},
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.DeleteParticipant(ctx, p.ID))

	for _, table := range models.LinkTables {
		links, err := f.mem.ListLinks(ctx, table)
		require.NoError(t, err)
		for _, l := range links {
			assert.NotEqual(t, p.ID, l.OwnerID, table.Name)
			assert.NotEqual(t, p.ID, l.TargetID, table.Name)
		}
	}
	_, found := f.fetcher.Snapshot().Participant(p.ID)
	assert.False(t, found)
	in, online := f.fetcher.Snapshot().Attendees(models.MeetingAttendees, m.ID)
	assert.Empty(t, in)
	assert.Equal(t, []uuid.UUID{other.ID}, online)
}

func TestDeleteMeetingCategoryBlockedByMeeting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.commission(t, "C1")
	f.participant(t, "Ana", c1.ID)
	_, err := f.orch.SaveMeeting(ctx, MeetingInput{Subject: "M1", CategoryID: c1.ID, Date: "2024-03-01", StartTime: "09:00"})
	require.NoError(t, err)
	scopes := len(f.notifier.scopes)

	err = f.orch.DeleteMeetingCategory(ctx, c1.ID)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Len(t, blocked.Meetings, 1)
	assert.Contains(t, err.Error(), "M1")
	assert.Contains(t, err.Error(), "1 meeting(s)")

	cats, err := f.mem.ListCategories(ctx, models.CategoryKindMeeting)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "C1 still present")
	links, err := f.mem.ListLinks(ctx, models.ParticipantCategories)
	require.NoError(t, err)
	assert.Len(t, links, 1, "soft dependents untouched")
	assert.Len(t, f.notifier.scopes, scopes)
}

func TestDeleteMeetingCategoryRemovesSoftDependents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "Energía")
	f.participant(t, "Ana", c.ID)
	_, err := f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.DeleteMeetingCategory(ctx, c.ID))

	cats, _ := f.mem.ListCategories(ctx, models.CategoryKindMeeting)
	assert.Empty(t, cats)
	members, _ := f.mem.ListLinks(ctx, models.ParticipantCategories)
	assert.Empty(t, members)
	organizers, _ := f.mem.ListLinks(ctx, models.EventMeetingOrganizers)
	assert.Empty(t, organizers)
}

func TestDeleteEventCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat, err := f.orch.SaveCategory(ctx, CategoryInput{Kind: models.CategoryKindEvent, Name: "Foros"})
	require.NoError(t, err)
	_, err = f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerCategory, OrganizerIDs: []uuid.UUID{cat.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.DeleteEventCategory(ctx, cat.ID))
	cats, _ := f.mem.ListCategories(ctx, models.CategoryKindEvent)
	assert.Empty(t, cats)
	assert.Equal(t, models.OrganizerUnresolved, f.fetcher.Snapshot().Events[0].OrganizerKind)
}

func TestSaveMeetingAttendeesRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")
	p1, p2, p3 := f.participant(t, "P1"), f.participant(t, "P2"), f.participant(t, "P3")

	m, err := f.orch.SaveMeeting(ctx, MeetingInput{
		Subject: "Mesa", CategoryID: c.ID, Date: "2024-03-01", StartTime: "09:00", EndTime: "10:30",
		InPerson: []uuid.UUID{p1.ID, p2.ID}, Online: []uuid.UUID{p2.ID, p3.ID},
	})
	require.NoError(t, err)

	in, online := f.fetcher.Snapshot().Attendees(models.MeetingAttendees, m.ID)
	assert.ElementsMatch(t, []uuid.UUID{p1.ID, p2.ID}, in, "in_person wins for a participant in both lists")
	assert.Equal(t, []uuid.UUID{p3.ID}, online)

	_, err = f.orch.SaveMeeting(ctx, MeetingInput{
		ID: m.ID, Subject: "Mesa", CategoryID: c.ID, Date: "2024-03-01", StartTime: "09:00",
		Online: []uuid.UUID{p1.ID},
	})
	require.NoError(t, err)
	links, _ := f.mem.ListLinks(ctx, models.MeetingAttendees)
	require.Len(t, links, 1)
	assert.Equal(t, models.Link{OwnerID: m.ID, TargetID: p1.ID, Mode: models.AttendanceOnline}, links[0])

	_, err = f.orch.SaveMeeting(ctx, MeetingInput{ID: m.ID, Subject: "Mesa", CategoryID: c.ID, Date: "2024-03-01", StartTime: "09:00"})
	require.NoError(t, err)
	links, _ = f.mem.ListLinks(ctx, models.MeetingAttendees)
	assert.Empty(t, links)
}

func TestSaveMeetingValidation(t *testing.T) {
	f := newFixture(t)
	negative := -2
	_, err := f.orch.SaveMeeting(context.Background(), MeetingInput{
		Date: "01/03/2024", StartTime: "10:00", EndTime: "09:30", ExternalAttendees: &negative,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["subject"])
	assert.Equal(t, "is required", verr.Fields["category_id"])
	assert.Equal(t, "must match 2006-01-02", verr.Fields["date"])
	assert.Equal(t, "must be later than start_time", verr.Fields["end_time"])
	assert.Equal(t, "must be at least 0", verr.Fields["external_attendees"])
}

func TestSaveMeetingComparesClockValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")

	m, err := f.orch.SaveMeeting(ctx, MeetingInput{Subject: "Temprano", CategoryID: c.ID, Date: "2024-03-01", StartTime: "9:30", EndTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "09:30", m.StartTime, "stored zero-padded")

	_, err = f.orch.SaveMeeting(ctx, MeetingInput{Subject: "Invertida", CategoryID: c.ID, Date: "2024-03-01", StartTime: "10:00", EndTime: "9:30"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be later than start_time", verr.Fields["end_time"])

	_, err = f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-01", StartTime: "10:00", EndTime: "9:45",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be later than start_time", verr.Fields["end_time"])

	meetings, _ := f.mem.ListMeetings(ctx)
	require.Len(t, meetings, 1)
	assert.Equal(t, m.ID, meetings[0].ID)
}

func TestSaveRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")
	p := f.participant(t, "Ana", c.ID)
	general, err := f.orch.SaveCategory(ctx, CategoryInput{Kind: models.CategoryKindEvent, Name: "Foros"})
	require.NoError(t, err)
	scopes := len(f.notifier.scopes)
	ghost := uuid.New()

	_, err = f.orch.SaveParticipant(ctx, ParticipantInput{ID: p.ID, Name: "Ana", CategoryIDs: []uuid.UUID{c.ID, ghost}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["category_ids"], ghost.String())

	_, err = f.orch.SaveMeeting(ctx, MeetingInput{
		Subject: "Mesa", CategoryID: ghost, Date: "2024-03-01", StartTime: "09:00", Online: []uuid.UUID{ghost},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category_id")
	assert.Contains(t, verr.Fields, "online")

	_, err = f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{general.ID},
		Date: "2024-03-05", StartTime: "10:00", Invitees: []uuid.UUID{p.ID, ghost},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "organizer_ids", "an event category is not a commission")
	assert.Contains(t, verr.Fields, "invitees")

	links, _ := f.mem.ListLinks(ctx, models.ParticipantCategories)
	assert.Equal(t, []uuid.UUID{c.ID}, targets(links), "memberships untouched")
	assert.Len(t, f.notifier.scopes, scopes, "no write happened")
}

func TestSaveEventRequiresOrganizerAfterDedup(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SaveEvent(context.Background(), EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{uuid.Nil},
		Date: "2024-03-05", StartTime: "10:00",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must have at least 1 item(s)", verr.Fields["organizer_ids"])

	events, _ := f.mem.ListEvents(context.Background())
	assert.Empty(t, events)
}

func TestSaveEventMovesOrganizersBetweenTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "Energía")
	general, err := f.orch.SaveCategory(ctx, CategoryInput{Kind: models.CategoryKindEvent, Name: "Foros"})
	require.NoError(t, err)

	e, err := f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)

	e, err = f.orch.SaveEvent(ctx, EventInput{
		ID: e.ID, Subject: "Foro", OrganizerKind: models.OrganizerCategory, OrganizerIDs: []uuid.UUID{general.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{general.ID}, e.OrganizerIDs)

	byCommission, _ := f.mem.ListLinks(ctx, models.EventMeetingOrganizers)
	assert.Empty(t, byCommission)
	got, ok := f.fetcher.Snapshot().Event(e.ID)
	require.True(t, ok)
	assert.Equal(t, models.OrganizerCategory, got.OrganizerKind)
}

func TestSaveEventValidation(t *testing.T) {
	f := newFixture(t)
	cost := -1.0
	_, err := f.orch.SaveEvent(context.Background(), EventInput{
		Subject: "Foro", OrganizerKind: "committee", Date: "2024-03-05", Cost: &cost,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["organizer_kind"], "must be one of")
	assert.Equal(t, "must have at least 1 item(s)", verr.Fields["organizer_ids"])
	assert.Equal(t, "is required", verr.Fields["start_time"])
	assert.Equal(t, "must be at least 0", verr.Fields["cost"])
}

func TestStepErrorReportsCommittedSteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")
	p := f.participant(t, "P1")
	m, err := f.orch.SaveMeeting(ctx, MeetingInput{
		Subject: "Mesa", CategoryID: c.ID, Date: "2024-03-01", StartTime: "09:00", InPerson: []uuid.UUID{p.ID},
	})
	require.NoError(t, err)

	boom := errors.New("insert failed")
	f.mem.FailOn("InsertLinks:"+models.MeetingAttendees.Name, boom)
	scopes := len(f.notifier.scopes)

	_, err = f.orch.SaveMeeting(ctx, MeetingInput{
		ID: m.ID, Subject: "Mesa renombrada", CategoryID: c.ID, Date: "2024-03-01", StartTime: "09:00",
		InPerson: []uuid.UUID{p.ID},
	})
	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "insert meeting_attendees", serr.Failed)
	assert.Equal(t, []string{"update meeting", "delete meeting_attendees"}, serr.Committed)

	got, _ := f.fetcher.Snapshot().Meeting(m.ID)
	assert.Equal(t, "Mesa renombrada", got.Subject, "partial commit is refreshed")
	in, _ := f.fetcher.Snapshot().Attendees(models.MeetingAttendees, m.ID)
	assert.Empty(t, in, "known gap: attendees stay empty until a retry")
	assert.Len(t, f.notifier.scopes, scopes+1)
}

func TestPrimaryWriteFailureStopsSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")
	f.mem.FailOn("CreateParticipant", errors.New("unavailable"))

	_, err := f.orch.SaveParticipant(ctx, ParticipantInput{Name: "Ana", CategoryIDs: []uuid.UUID{c.ID}})
	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create participant", serr.Failed)
	assert.Empty(t, serr.Committed)

	links, _ := f.mem.ListLinks(ctx, models.ParticipantCategories)
	assert.Empty(t, links)
}

func TestUpdateMissingRecordIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SaveParticipant(context.Background(), ParticipantInput{ID: uuid.New(), Name: "Nadie"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetEventFlyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.commission(t, "A")
	e, err := f.orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.SetEventFlyer(ctx, e.ID, "flyers/x/flyer.png"))
	got, _ := f.fetcher.Snapshot().Event(e.ID)
	assert.Equal(t, "flyers/x/flyer.png", got.FlyerKey)

	_, err = f.orch.SaveEvent(ctx, EventInput{
		ID: e.ID, Subject: "Foro 2", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-05", StartTime: "10:00",
	})
	require.NoError(t, err)
	got, _ = f.fetcher.Snapshot().Event(e.ID)
	assert.Equal(t, "flyers/x/flyer.png", got.FlyerKey, "saving the form keeps the flyer")
}

func TestEventWritesUseEventRefresh(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := &countingRefresher{Fetcher: snapshot.New(mem, nil)}
	orch := New(mem, r, nil, nil)

	c, err := orch.SaveCategory(ctx, CategoryInput{Kind: models.CategoryKindMeeting, Name: "A"})
	require.NoError(t, err)
	p, err := orch.SaveParticipant(ctx, ParticipantInput{Name: "Ana"})
	require.NoError(t, err)
	require.Equal(t, 2, r.all)

	e, err := orch.SaveEvent(ctx, EventInput{
		Subject: "Foro", OrganizerKind: models.OrganizerMeetingCategory, OrganizerIDs: []uuid.UUID{c.ID},
		Date: "2024-03-05", StartTime: "10:00", InPerson: []uuid.UUID{p.ID},
	})
	require.NoError(t, err)
	require.NoError(t, orch.SetEventFlyer(ctx, e.ID, "flyers/x/flyer.png"))

	s := r.Snapshot()
	got, ok := s.Event(e.ID)
	require.True(t, ok)
	assert.Equal(t, "flyers/x/flyer.png", got.FlyerKey)
	in, _ := s.Attendees(models.EventAttendees, e.ID)
	assert.Equal(t, []uuid.UUID{p.ID}, in)

	require.NoError(t, orch.DeleteEvent(ctx, e.ID))
	assert.Empty(t, r.Snapshot().Events)
	assert.Equal(t, 3, r.events)
	assert.Equal(t, 2, r.all)
}
