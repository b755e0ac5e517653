// Package permissions is the central capability table: which role may perform which action on which
// kind of resource.
package permissions

import "github.com/ciecnow/backend/internal/models"

// Action is something a user does to a resource.
type Action string

const (
	View   Action = "view"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Export Action = "export"
	Manage Action = "manage"
)

// Resource is a kind of record or screen.
type Resource string

const (
	Participants Resource = "participants"
	Companies    Resource = "companies"
	Categories   Resource = "categories"
	Meetings     Resource = "meetings"
	Events       Resource = "events"
	Agenda       Resource = "agenda"
	Stats        Resource = "stats"
	Reports      Resource = "reports"
	Users        Resource = "users"
	Account      Resource = "account"
)

var (
	domain = []Resource{Participants, Companies, Categories, Meetings, Events, Agenda, Stats, Reports}
	crud   = []Action{View, Create, Update, Delete, Export}
)

type grant map[Resource]map[Action]bool

func (g grant) allow(resources []Resource, actions ...Action) grant {
	for _, r := range resources {
		if g[r] == nil {
			g[r] = make(map[Action]bool)
		}
		for _, a := range actions {
			g[r][a] = true
		}
	}
	return g
}

// table is the whole rule set. Every approved role may view and update its own account.
var table = map[models.RoleName]grant{
	models.RoleAdmin: grant{}.
		allow(domain, crud...).
		allow([]Resource{Users}, View, Create, Update, Delete, Manage).
		allow([]Resource{Account}, View, Update),
	models.RoleEditor: grant{}.
		allow(domain, crud...).
		allow([]Resource{Account}, View, Update),
	models.RoleViewer: grant{}.
		allow(domain, View, Export).
		allow([]Resource{Account}, View, Update),
}

// Allowed reports whether role may perform action on resource. Unknown roles may do nothing.
func Allowed(action Action, resource Resource, role models.RoleName) bool {
	return table[role][resource][action]
}

// Subject is the caller a decision is made for.
type Subject struct {
	Role     models.RoleName
	Approved bool
}

// ForProfile builds a Subject from a user profile. A nil profile is an anonymous, unapproved subject.
func ForProfile(p *models.UserProfile) Subject {
	if p == nil {
		return Subject{}
	}
	return Subject{Role: p.RoleName, Approved: p.Approved}
}

// Can applies the table to a subject. Unapproved subjects are restricted to viewing their account.
func (s Subject) Can(action Action, resource Resource) bool {
	if !s.Approved {
		return resource == Account && action == View
	}
	if resource == Account && (action == View || action == Update) {
		return true
	}
	return Allowed(action, resource, s.Role)
}
