// Package participants serves the participant directory and its commission memberships.
package participants

import (
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/apierr"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/utils"
)

// Snapshotter provides the current snapshot.
type Snapshotter interface {
	Snapshot() snapshot.State
}

// Participant is a participant with its memberships and company name resolved.
type Participant struct {
	models.Participant
	Company     string      `json:"company,omitempty"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	source Snapshotter
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(source Snapshotter, orch *orchestrator.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, orch: orch, logger: logger}
}

func view(s snapshot.State, p models.Participant) Participant {
	out := Participant{Participant: p, CategoryIDs: s.Targets(models.ParticipantCategories, p.ID)}
	if out.CategoryIDs == nil {
		out.CategoryIDs = []uuid.UUID{}
	}
	if p.OrganizationID != nil {
		if o, ok := s.Organization(*p.OrganizationID); ok {
			out.Company = o.Name
		}
	}
	return out
}

// List handles GET /participants?q=&category_id=&organization_id=. q matches name, role, email and
// company without regard to case or accents.
func (h *Handler) List(c *gin.Context) {
	s := h.source.Snapshot()
	q := c.Query("q")
	orgID := c.Query("organization_id")
	var category uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid category_id")
			return
		}
		category = id
	}

	list := make([]Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		v := view(s, p)
		if orgID != "" && (p.OrganizationID == nil || *p.OrganizationID != orgID) {
			continue
		}
		if category != uuid.Nil && !contains(v.CategoryIDs, category) {
			continue
		}
		if !utils.MatchesAll(q, p.Name, p.Role, p.Email, v.Company) {
			continue
		}
		list = append(list, v)
	}
	sort.SliceStable(list, func(i, j int) bool { return utils.Fold(list[i].Name) < utils.Fold(list[j].Name) })
	response.OK(c, list)
}

// Get handles GET /participants/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	s := h.source.Snapshot()
	p, ok := s.Participant(id)
	if !ok {
		response.NotFound(c, "participant not found")
		return
	}
	response.OK(c, view(s, p))
}

// Create handles POST /participants.
func (h *Handler) Create(c *gin.Context) {
	var in orchestrator.ParticipantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = uuid.Nil
	p, err := h.orch.SaveParticipant(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.Created(c, view(h.source.Snapshot(), *p))
}

// Update handles PUT /participants/:id. The memberships in the body replace the stored ones.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	var in orchestrator.ParticipantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = id
	p, err := h.orch.SaveParticipant(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.OK(c, view(h.source.Snapshot(), *p))
}

// Delete handles DELETE /participants/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	if err := h.orch.DeleteParticipant(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
