package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// Memory is an in-process Store used for local runs and tests. It enforces the same keys and
// foreign-key refusals as the SQL schema and can be told to fail individual operations.
type Memory struct {
	mu            sync.Mutex
	participants  map[uuid.UUID]models.Participant
	organizations []models.Organization
	categories    map[models.CategoryKind]map[uuid.UUID]models.Category
	meetings      map[uuid.UUID]models.Meeting
	events        map[uuid.UUID]models.Event
	links         map[string][]models.Link
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.UserProfile
	roles         []models.Role
	failures      map[string]error
}

// NewMemory creates an empty in-memory store with the default roles.
func NewMemory() *Memory {
	return &Memory{
		participants: make(map[uuid.UUID]models.Participant),
		categories: map[models.CategoryKind]map[uuid.UUID]models.Category{
			models.CategoryKindMeeting: {},
			models.CategoryKindEvent:   {},
		},
		meetings: make(map[uuid.UUID]models.Meeting),
		events:   make(map[uuid.UUID]models.Event),
		links:    make(map[string][]models.Link),
		users:    make(map[uuid.UUID]models.User),
		profiles: make(map[uuid.UUID]models.UserProfile),
		roles: []models.Role{
			{ID: 1, Name: models.RoleAdmin},
			{ID: 2, Name: models.RoleEditor},
			{ID: 3, Name: models.RoleViewer},
		},
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of op return err. Link operations may be scoped to a table with
// "Op:table_name". A nil err clears the failure.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// SeedOrganizations replaces the affiliated companies list.
func (m *Memory) SeedOrganizations(orgs ...models.Organization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations = append([]models.Organization(nil), orgs...)
}

func (m *Memory) fail(op string, scope ...string) error {
	for _, s := range scope {
		if err, ok := m.failures[op+":"+s]; ok {
			return err
		}
	}
	return m.failures[op]
}

// ListParticipants returns every participant ordered by name.
func (m *Memory) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListParticipants"); err != nil {
		return nil, err
	}
	list := make([]models.Participant, 0, len(m.participants))
	for _, p := range m.participants {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// CreateParticipant inserts a participant.
func (m *Memory) CreateParticipant(ctx context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateParticipant"); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.participants[p.ID] = *p
	return nil
}

// UpdateParticipant rewrites a participant.
func (m *Memory) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateParticipant"); err != nil {
		return err
	}
	old, ok := m.participants[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	m.participants[p.ID] = *p
	return nil
}

// DeleteParticipant removes a participant, refusing while join rows reference it.
func (m *Memory) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteParticipant"); err != nil {
		return err
	}
	if _, ok := m.participants[id]; !ok {
		return ErrNotFound
	}
	if err := m.referenced(id,
		linkRef{models.ParticipantCategories, models.ByOwner},
		linkRef{models.MeetingAttendees, models.ByTarget},
		linkRef{models.EventAttendees, models.ByTarget},
		linkRef{models.EventInvitees, models.ByTarget},
	); err != nil {
		return err
	}
	delete(m.participants, id)
	return nil
}

// ListOrganizations returns the seeded companies ordered by name.
func (m *Memory) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListOrganizations"); err != nil {
		return nil, err
	}
	list := append([]models.Organization(nil), m.organizations...)
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// ListCategories returns the categories of a kind ordered by name.
func (m *Memory) ListCategories(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListCategories", string(kind)); err != nil {
		return nil, err
	}
	table, ok := m.categories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown category kind %q", kind)
	}
	list := make([]models.Category, 0, len(table))
	for _, c := range table {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// CreateCategory inserts a category.
func (m *Memory) CreateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateCategory", string(c.Kind)); err != nil {
		return err
	}
	table, ok := m.categories[c.Kind]
	if !ok {
		return fmt.Errorf("unknown category kind %q", c.Kind)
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	table[c.ID] = *c
	return nil
}

// UpdateCategory renames a category.
func (m *Memory) UpdateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateCategory", string(c.Kind)); err != nil {
		return err
	}
	old, ok := m.categories[c.Kind][c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	m.categories[c.Kind][c.ID] = *c
	return nil
}

// DeleteCategory removes a category, refusing while meetings or join rows reference it.
func (m *Memory) DeleteCategory(ctx context.Context, kind models.CategoryKind, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteCategory", string(kind)); err != nil {
		return err
	}
	if _, ok := m.categories[kind][id]; !ok {
		return ErrNotFound
	}
	if kind == models.CategoryKindMeeting {
		for _, mt := range m.meetings {
			if mt.CategoryID == id {
				return fmt.Errorf("category %s is referenced by meeting %s", id, mt.ID)
			}
		}
		if err := m.referenced(id,
			linkRef{models.ParticipantCategories, models.ByTarget},
			linkRef{models.EventMeetingOrganizers, models.ByTarget},
		); err != nil {
			return err
		}
	} else if err := m.referenced(id, linkRef{models.EventCategoryOrganizers, models.ByTarget}); err != nil {
		return err
	}
	delete(m.categories[kind], id)
	return nil
}

func sortMeetings(list []models.Meeting) {
	sort.Slice(list, func(i, j int) bool {
		return models.ScheduledBefore(list[i].Date, list[i].StartTime, list[j].Date, list[j].StartTime)
	})
}

// ListMeetings returns every meeting ordered by date and start time.
func (m *Memory) ListMeetings(ctx context.Context) ([]models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListMeetings"); err != nil {
		return nil, err
	}
	list := make([]models.Meeting, 0, len(m.meetings))
	for _, mt := range m.meetings {
		list = append(list, mt)
	}
	sortMeetings(list)
	return list, nil
}

// ListMeetingsByCategory returns the meetings referencing a category.
func (m *Memory) ListMeetingsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListMeetingsByCategory"); err != nil {
		return nil, err
	}
	var list []models.Meeting
	for _, mt := range m.meetings {
		if mt.CategoryID == categoryID {
			list = append(list, mt)
		}
	}
	sortMeetings(list)
	return list, nil
}

// CreateMeeting inserts a meeting.
func (m *Memory) CreateMeeting(ctx context.Context, mt *models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateMeeting"); err != nil {
		return err
	}
	if _, ok := m.categories[models.CategoryKindMeeting][mt.CategoryID]; !ok {
		return fmt.Errorf("%w: meeting category %s", ErrInvalidReference, mt.CategoryID)
	}
	mt.ID = uuid.New()
	mt.CreatedAt = time.Now()
	mt.UpdatedAt = mt.CreatedAt
	m.meetings[mt.ID] = *mt
	return nil
}

// UpdateMeeting rewrites a meeting.
func (m *Memory) UpdateMeeting(ctx context.Context, mt *models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateMeeting"); err != nil {
		return err
	}
	old, ok := m.meetings[mt.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.categories[models.CategoryKindMeeting][mt.CategoryID]; !ok {
		return fmt.Errorf("%w: meeting category %s", ErrInvalidReference, mt.CategoryID)
	}
	mt.CreatedAt = old.CreatedAt
	mt.UpdatedAt = time.Now()
	m.meetings[mt.ID] = *mt
	return nil
}

// DeleteMeeting removes a meeting, refusing while attendee rows reference it.
func (m *Memory) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteMeeting"); err != nil {
		return err
	}
	if _, ok := m.meetings[id]; !ok {
		return ErrNotFound
	}
	if err := m.referenced(id, linkRef{models.MeetingAttendees, models.ByOwner}); err != nil {
		return err
	}
	delete(m.meetings, id)
	return nil
}

// ListEvents returns every event row ordered by date and start time.
func (m *Memory) ListEvents(ctx context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListEvents"); err != nil {
		return nil, err
	}
	list := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		return models.ScheduledBefore(list[i].Date, list[i].StartTime, list[j].Date, list[j].StartTime)
	})
	return list, nil
}

// eventRow strips the fields the events table does not store.
func eventRow(e models.Event) models.Event {
	e.OrganizerKind = ""
	e.OrganizerIDs = nil
	return e
}

// CreateEvent inserts an event row.
func (m *Memory) CreateEvent(ctx context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateEvent"); err != nil {
		return err
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.events[e.ID] = eventRow(*e)
	return nil
}

// UpdateEvent rewrites an event row, keeping the flyer key when e.FlyerKey is empty.
func (m *Memory) UpdateEvent(ctx context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateEvent"); err != nil {
		return err
	}
	old, ok := m.events[e.ID]
	if !ok {
		return ErrNotFound
	}
	if e.FlyerKey == "" {
		e.FlyerKey = old.FlyerKey
	}
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = time.Now()
	m.events[e.ID] = eventRow(*e)
	return nil
}

// SetEventFlyer records a flyer key.
func (m *Memory) SetEventFlyer(ctx context.Context, id uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetEventFlyer"); err != nil {
		return err
	}
	e, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	e.FlyerKey = key
	e.UpdatedAt = time.Now()
	m.events[id] = e
	return nil
}

// DeleteEvent removes an event, refusing while join rows reference it.
func (m *Memory) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteEvent"); err != nil {
		return err
	}
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	if err := m.referenced(id,
		linkRef{models.EventAttendees, models.ByOwner},
		linkRef{models.EventInvitees, models.ByOwner},
		linkRef{models.EventMeetingOrganizers, models.ByOwner},
		linkRef{models.EventCategoryOrganizers, models.ByOwner},
	); err != nil {
		return err
	}
	delete(m.events, id)
	return nil
}

type linkRef struct {
	table models.LinkTable
	side  models.LinkSide
}

func (m *Memory) referenced(id uuid.UUID, refs ...linkRef) error {
	for _, ref := range refs {
		for _, l := range m.links[ref.table.Name] {
			key := l.OwnerID
			if ref.side == models.ByTarget {
				key = l.TargetID
			}
			if key == id {
				return fmt.Errorf("%s is still referenced by %s", id, ref.table.Name)
			}
		}
	}
	return nil
}

// ListLinks returns a copy of a join table.
func (m *Memory) ListLinks(ctx context.Context, table models.LinkTable) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListLinks", table.Name); err != nil {
		return nil, err
	}
	return append([]models.Link(nil), m.links[table.Name]...), nil
}

// linkEnds returns existence checks for the owner and target columns of a join table.
func (m *Memory) linkEnds(table models.LinkTable) (owner, target func(uuid.UUID) bool) {
	participant, meeting, event := has(m.participants), has(m.meetings), has(m.events)
	switch table.Name {
	case models.ParticipantCategories.Name:
		return participant, has(m.categories[models.CategoryKindMeeting])
	case models.MeetingAttendees.Name:
		return meeting, participant
	case models.EventAttendees.Name, models.EventInvitees.Name:
		return event, participant
	case models.EventMeetingOrganizers.Name:
		return event, has(m.categories[models.CategoryKindMeeting])
	case models.EventCategoryOrganizers.Name:
		return event, has(m.categories[models.CategoryKindEvent])
	}
	return nil, nil
}

func has[V any](rows map[uuid.UUID]V) func(uuid.UUID) bool {
	return func(id uuid.UUID) bool {
		_, ok := rows[id]
		return ok
	}
}

// InsertLinks appends join rows. A duplicate key fails the whole batch with ErrConflict and a row
// naming a missing owner or target fails it with ErrInvalidReference.
func (m *Memory) InsertLinks(ctx context.Context, table models.LinkTable, links []models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertLinks", table.Name); err != nil {
		return err
	}
	owner, target := m.linkEnds(table)
	if owner == nil {
		return fmt.Errorf("unknown join table %q", table.Name)
	}
	for _, l := range links {
		if !owner(l.OwnerID) {
			return fmt.Errorf("%w: %s.%s %s", ErrInvalidReference, table.Name, table.OwnerColumn, l.OwnerID)
		}
		if !target(l.TargetID) {
			return fmt.Errorf("%w: %s.%s %s", ErrInvalidReference, table.Name, table.TargetColumn, l.TargetID)
		}
	}
	seen := make(map[[2]uuid.UUID]bool, len(m.links[table.Name])+len(links))
	for _, l := range m.links[table.Name] {
		seen[[2]uuid.UUID{l.OwnerID, l.TargetID}] = true
	}
	for _, l := range links {
		key := [2]uuid.UUID{l.OwnerID, l.TargetID}
		if seen[key] {
			return ErrConflict
		}
		seen[key] = true
	}
	for _, l := range links {
		if !table.HasMode {
			l.Mode = ""
		}
		m.links[table.Name] = append(m.links[table.Name], l)
	}
	return nil
}

// DeleteLinks removes the join rows whose owner or target equals id.
func (m *Memory) DeleteLinks(ctx context.Context, table models.LinkTable, side models.LinkSide, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteLinks", table.Name); err != nil {
		return err
	}
	kept := m.links[table.Name][:0:0]
	for _, l := range m.links[table.Name] {
		key := l.OwnerID
		if side == models.ByTarget {
			key = l.TargetID
		}
		if key != id {
			kept = append(kept, l)
		}
	}
	m.links[table.Name] = kept
	return nil
}

// CreateUser inserts an identity record and its profile.
func (m *Memory) CreateUser(ctx context.Context, u *models.User, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return err
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	profile.ID = u.ID
	profile.Email = u.Email
	profile.CreatedAt = u.CreatedAt
	m.profiles[u.ID] = *profile
	return nil
}

// GetUserByEmail returns the identity record for an email.
func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// UpdatePassword replaces a password hash.
func (m *Memory) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePassword"); err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	m.users[userID] = u
	return nil
}

func (m *Memory) withRole(p models.UserProfile) models.UserProfile {
	p.RoleName = ""
	if p.RoleID != nil {
		for _, r := range m.roles {
			if r.ID == *p.RoleID {
				p.RoleName = r.Name
			}
		}
	}
	return p
}

// GetProfile returns a user's profile.
func (m *Memory) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	p = m.withRole(p)
	return &p, nil
}

// ListProfiles returns every profile ordered by name.
func (m *Memory) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListProfiles"); err != nil {
		return nil, err
	}
	list := make([]models.UserProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		list = append(list, m.withRole(p))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].FullName != list[j].FullName {
			return list[i].FullName < list[j].FullName
		}
		return list[i].Email < list[j].Email
	})
	return list, nil
}

// UpdateProfile writes name, approval, role and invited flag.
func (m *Memory) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateProfile"); err != nil {
		return err
	}
	old, ok := m.profiles[p.ID]
	if !ok {
		return ErrNotFound
	}
	old.FullName = p.FullName
	old.Approved = p.Approved
	old.RoleID = p.RoleID
	old.Invited = p.Invited
	m.profiles[p.ID] = old
	return nil
}

// ListRoles returns the role table.
func (m *Memory) ListRoles(ctx context.Context) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListRoles"); err != nil {
		return nil, err
	}
	return append([]models.Role(nil), m.roles...), nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)
