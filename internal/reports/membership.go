package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

// Field is an optional participant column of the membership export.
type Field string

const (
	FieldRole    Field = "role"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldCompany Field = "company"
)

var fieldLabels = map[Field]string{
	FieldRole:    "Rol",
	FieldEmail:   "Email",
	FieldPhone:   "Teléfono",
	FieldCompany: "Empresa",
}

// EmptyCategory fills the participant column of a category with no members.
const EmptyCategory = "(sin participantes)"

// ParseFields reads a comma-separated field list. Duplicates are dropped.
func ParseFields(list string) ([]Field, error) {
	var fields []Field
	seen := make(map[Field]bool)
	for _, raw := range strings.Split(list, ",") {
		f := Field(strings.ToLower(strings.TrimSpace(raw)))
		if f == "" || seen[f] {
			continue
		}
		if _, ok := fieldLabels[f]; !ok {
			return nil, fmt.Errorf("unknown field %q", raw)
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// OrganizingCommittees returns the commissions that held a meeting or organized an event among acts,
// in order of first appearance.
func OrganizingCommittees(acts []Activity) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, a := range acts {
		for _, id := range a.Committees {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// MembershipRows lists one row per member per commission, with a placeholder row for a commission
// without members. Unknown commission ids are skipped.
func MembershipRows(s snapshot.State, committees []uuid.UUID, fields []Field) [][]string {
	header := []string{"Comisión", "Participante"}
	for _, f := range fields {
		header = append(header, fieldLabels[f])
	}
	rows := [][]string{header}

	for _, id := range committees {
		c, ok := s.Category(models.CategoryKindMeeting, id)
		if !ok {
			continue
		}
		var members []models.Participant
		for _, l := range s.LinksOf(models.ParticipantCategories, models.ByTarget, id) {
			if p, ok := s.Participant(l.OwnerID); ok {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			row := []string{c.Name, EmptyCategory}
			for range fields {
				row = append(row, "")
			}
			rows = append(rows, row)
			continue
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		for _, p := range members {
			row := []string{c.Name, p.Name}
			for _, f := range fields {
				row = append(row, fieldValue(s, p, f))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func fieldValue(s snapshot.State, p models.Participant, f Field) string {
	switch f {
	case FieldRole:
		return p.Role
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldCompany:
		if p.OrganizationID == nil {
			return ""
		}
		if o, ok := s.Organization(*p.OrganizationID); ok {
			return o.Name
		}
		return *p.OrganizationID
	}
	return ""
}
