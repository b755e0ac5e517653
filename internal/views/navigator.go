// Package views is the navigation controller: a per-user selector over the fixed set of screens.
package views

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/permissions"
)

// Key names a screen.
type Key string

const (
	MainMenu                Key = "main_menu"
	ScheduleMeeting         Key = "schedule_meeting"
	Participants            Key = "participants"
	Companies               Key = "companies"
	Agenda                  Key = "agenda"
	ManageMeetingCategories Key = "manage_meeting_categories"
	ManageEventCategories   Key = "manage_event_categories"
	ManageEvents            Key = "manage_events"
	Stats                   Key = "stats"
	Reports                 Key = "reports"
	AdminUsers              Key = "admin_users"
	Account                 Key = "account"
)

var (
	ErrUnknownView = errors.New("unknown view")
	ErrForbidden   = errors.New("view not allowed")
	ErrNotEditable = errors.New("view has no edit variant")
)

// view is the capability a screen needs. Screens with an edit variant check editAction instead when a
// record is seeded.
type view struct {
	resource   permissions.Resource
	action     permissions.Action
	editAction permissions.Action
}

var catalog = map[Key]view{
	MainMenu:                {resource: permissions.Account, action: permissions.View},
	ScheduleMeeting:         {resource: permissions.Meetings, action: permissions.Create, editAction: permissions.Update},
	Participants:            {resource: permissions.Participants, action: permissions.View, editAction: permissions.Update},
	Companies:               {resource: permissions.Companies, action: permissions.View},
	Agenda:                  {resource: permissions.Agenda, action: permissions.View},
	ManageMeetingCategories: {resource: permissions.Categories, action: permissions.View, editAction: permissions.Update},
	ManageEventCategories:   {resource: permissions.Categories, action: permissions.View, editAction: permissions.Update},
	ManageEvents:            {resource: permissions.Events, action: permissions.View, editAction: permissions.Update},
	Stats:                   {resource: permissions.Stats, action: permissions.View},
	Reports:                 {resource: permissions.Reports, action: permissions.Export},
	AdminUsers:              {resource: permissions.Users, action: permissions.Manage, editAction: permissions.Manage},
	Account:                 {resource: permissions.Account, action: permissions.View},
}

// Order is the menu order of the screens.
var Order = []Key{
	MainMenu, ScheduleMeeting, Participants, Companies, Agenda, ManageMeetingCategories,
	ManageEventCategories, ManageEvents, Stats, Reports, AdminUsers, Account,
}

// State is where one user currently is. EditID is set only while the edit variant is open.
type State struct {
	Current Key        `json:"current"`
	EditID  *uuid.UUID `json:"edit_id,omitempty"`
}

// Home is the landing screen for a subject.
func Home(s permissions.Subject) Key {
	if !s.Approved {
		return Account
	}
	return MainMenu
}

// Allowed reports whether a subject may open key, in its edit variant when edit is true.
func Allowed(s permissions.Subject, key Key, edit bool) bool {
	v, ok := catalog[key]
	if !ok {
		return false
	}
	if !s.Approved {
		return key == Account && !edit
	}
	action := v.action
	if edit {
		if v.editAction == "" {
			return false
		}
		action = v.editAction
	}
	return s.Can(action, v.resource)
}

// Available lists the screens a subject may open, in menu order.
func Available(s permissions.Subject) []Key {
	var keys []Key
	for _, k := range Order {
		if Allowed(s, k, false) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Navigator keeps one State per user.
type Navigator struct {
	mu     sync.Mutex
	states map[uuid.UUID]State
}

// NewNavigator creates an empty Navigator.
func NewNavigator() *Navigator {
	return &Navigator{states: make(map[uuid.UUID]State)}
}

// Current returns the user's state, starting at the subject's home screen. A screen the subject may no
// longer open (e.g. after losing a role) falls back to home.
func (n *Navigator) Current(userID uuid.UUID, s permissions.Subject) State {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.states[userID]
	if !ok || !Allowed(s, st.Current, st.EditID != nil) {
		st = State{Current: Home(s)}
		n.states[userID] = st
	}
	return st
}

// Navigate moves the user to key. A non-nil editID opens the edit variant seeded with that record;
// any other transition clears the seed. The state is unchanged when the move is refused.
func (n *Navigator) Navigate(userID uuid.UUID, s permissions.Subject, key Key, editID *uuid.UUID) (State, error) {
	v, ok := catalog[key]
	if !ok {
		return State{}, ErrUnknownView
	}
	edit := editID != nil
	if edit && v.editAction == "" {
		return State{}, ErrNotEditable
	}
	if !Allowed(s, key, edit) {
		return State{}, ErrForbidden
	}

	next := State{Current: key}
	if edit {
		id := *editID
		next.EditID = &id
	}
	n.mu.Lock()
	n.states[userID] = next
	n.mu.Unlock()
	return next, nil
}

// Forget drops a user's state, e.g. on sign-out.
func (n *Navigator) Forget(userID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.states, userID)
}
