package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleName is the name of an access role.
type RoleName string

const (
	RoleAdmin  RoleName = "admin"
	RoleEditor RoleName = "editor"
	RoleViewer RoleName = "viewer"
)

// Role is an access role row.
type Role struct {
	ID   int      `json:"id"`
	Name RoleName `json:"name"`
}

// User is an identity record (credentials).
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the account metadata layered over a User.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Approved  bool      `json:"approved"`
	RoleID    *int      `json:"role_id,omitempty"`
	RoleName  RoleName  `json:"role,omitempty"`
	Invited   bool      `json:"invited"`
	CreatedAt time.Time `json:"created_at"`
}
