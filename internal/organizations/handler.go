// Package organizations serves the read-only list of affiliated companies.
package organizations

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/utils"
)

// Snapshotter provides the current snapshot.
type Snapshotter interface {
	Snapshot() snapshot.State
}

// Company is an affiliated company with the number of tracked participants working there.
type Company struct {
	models.Organization
	Participants int `json:"participants"`
}

// CompanyDetail adds the participants of the company.
type CompanyDetail struct {
	Company
	Members []models.Participant `json:"members"`
}

// Handler handles company HTTP endpoints. Companies come from the external membership list and are
// never written here.
type Handler struct {
	source Snapshotter
}

// NewHandler creates a companies handler.
func NewHandler(source Snapshotter) *Handler {
	return &Handler{source: source}
}

func members(s snapshot.State, orgID string) []models.Participant {
	out := []models.Participant{}
	for _, p := range s.Participants {
		if p.OrganizationID != nil && *p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out
}

// List handles GET /companies?q=. q matches name, RIF and sector without regard to case or accents.
func (h *Handler) List(c *gin.Context) {
	s := h.source.Snapshot()
	q := c.Query("q")
	counts := make(map[string]int)
	for _, p := range s.Participants {
		if p.OrganizationID != nil {
			counts[*p.OrganizationID]++
		}
	}
	list := make([]Company, 0, len(s.Organizations))
	for _, o := range s.Organizations {
		if !utils.MatchesAll(q, o.Name, o.RIF, o.Sector) {
			continue
		}
		list = append(list, Company{Organization: o, Participants: counts[o.ID]})
	}
	sort.SliceStable(list, func(i, j int) bool { return utils.Fold(list[i].Name) < utils.Fold(list[j].Name) })
	response.OK(c, list)
}

// Get handles GET /companies/:id.
func (h *Handler) Get(c *gin.Context) {
	s := h.source.Snapshot()
	o, ok := s.Organization(c.Param("id"))
	if !ok {
		response.NotFound(c, "company not found")
		return
	}
	m := members(s, o.ID)
	response.OK(c, CompanyDetail{Company: Company{Organization: o, Participants: len(m)}, Members: m})
}
