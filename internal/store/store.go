// Package store is the table-oriented data store the service reads snapshots from and writes through.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a write names a related record that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")

// ParticipantStore covers the participants table.
type ParticipantStore interface {
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	CreateParticipant(ctx context.Context, p *models.Participant) error
	UpdateParticipant(ctx context.Context, p *models.Participant) error
	DeleteParticipant(ctx context.Context, id uuid.UUID) error
}

// OrganizationStore covers the read-only affiliated companies list.
type OrganizationStore interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
}

// CategoryStore covers both category tables.
type CategoryStore interface {
	ListCategories(ctx context.Context, kind models.CategoryKind) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, kind models.CategoryKind, id uuid.UUID) error
}

// MeetingStore covers the meetings table.
type MeetingStore interface {
	ListMeetings(ctx context.Context) ([]models.Meeting, error)
	ListMeetingsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, m *models.Meeting) error
	UpdateMeeting(ctx context.Context, m *models.Meeting) error
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
}

// EventStore covers the events table. Organizer fields are not stored on the row.
type EventStore interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, e *models.Event) error
	UpdateEvent(ctx context.Context, e *models.Event) error
	SetEventFlyer(ctx context.Context, id uuid.UUID, key string) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// LinkStore covers the join tables.
type LinkStore interface {
	ListLinks(ctx context.Context, table models.LinkTable) ([]models.Link, error)
	InsertLinks(ctx context.Context, table models.LinkTable, links []models.Link) error
	DeleteLinks(ctx context.Context, table models.LinkTable, side models.LinkSide, id uuid.UUID) error
}

// AccountStore covers identity records, profiles and roles.
type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User, profile *models.UserProfile) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// Store is the whole data store.
type Store interface {
	ParticipantStore
	OrganizationStore
	CategoryStore
	MeetingStore
	EventStore
	LinkStore
	AccountStore
}
