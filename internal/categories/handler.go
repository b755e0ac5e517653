// Package categories serves commissions (meeting categories) and event categories.
package categories

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

// Category is a category with its usage counts. Members and Meetings are only set for commissions.
type Category struct {
	models.Category
	Members  int `json:"members"`
	Meetings int `json:"meetings"`
	Events   int `json:"events"`
}

// SaveRequest is the body for creating or renaming a category.
type SaveRequest struct {
	Name string `json:"name"`
}

// Handler handles category HTTP endpoints. Each method is bound to one kind when routes are registered.
type Handler struct {
	source Snapshotter
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewHandler creates a categories handler.
func NewHandler(source Snapshotter, orch *orchestrator.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, orch: orch, logger: logger}
}

func usage(s snapshot.State, c models.Category) Category {
	out := Category{Category: c}
	if c.Kind == models.CategoryKindMeeting {
		out.Members = len(s.LinksOf(models.ParticipantCategories, models.ByTarget, c.ID))
		for _, m := range s.Meetings {
			if m.CategoryID == c.ID {
				out.Meetings++
			}
		}
		out.Events = len(s.LinksOf(models.EventMeetingOrganizers, models.ByTarget, c.ID))
	} else {
		out.Events = len(s.LinksOf(models.EventCategoryOrganizers, models.ByTarget, c.ID))
	}
	return out
}

// List handles GET on the kind's collection; ?q= filters by name.
func (h *Handler) List(kind models.CategoryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := h.source.Snapshot()
		q := c.Query("q")
		list := make([]Category, 0, len(s.Categories(kind)))
		for _, cat := range s.Categories(kind) {
			if utils.MatchesAll(q, cat.Name) {
				list = append(list, usage(s, cat))
			}
		}
		sort.SliceStable(list, func(i, j int) bool { return utils.Fold(list[i].Name) < utils.Fold(list[j].Name) })
		response.OK(c, list)
	}
}

// Members handles GET /commissions/:id/members.
func (h *Handler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return
	}
	s := h.source.Snapshot()
	if _, ok := s.Category(models.CategoryKindMeeting, id); !ok {
		response.NotFound(c, "category not found")
		return
	}
	members := []models.Participant{}
	for _, l := range s.LinksOf(models.ParticipantCategories, models.ByTarget, id) {
		if p, ok := s.Participant(l.OwnerID); ok {
			members = append(members, p)
		}
	}
	sort.SliceStable(members, func(i, j int) bool { return utils.Fold(members[i].Name) < utils.Fold(members[j].Name) })
	response.OK(c, members)
}

// Create handles POST on the kind's collection.
func (h *Handler) Create(kind models.CategoryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		cat, err := h.orch.SaveCategory(c.Request.Context(), orchestrator.CategoryInput{Kind: kind, Name: req.Name})
		if err != nil {
			apierr.Write(c, h.logger, err)
			return
		}
		response.Created(c, cat)
	}
}

// Update handles PUT on /:id of the kind's collection.
func (h *Handler) Update(kind models.CategoryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid category id")
			return
		}
		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		cat, err := h.orch.SaveCategory(c.Request.Context(), orchestrator.CategoryInput{ID: id, Kind: kind, Name: req.Name})
		if err != nil {
			apierr.Write(c, h.logger, err)
			return
		}
		response.OK(c, cat)
	}
}

// Delete handles DELETE on /:id of the kind's collection. A commission with meetings is refused with 409.
func (h *Handler) Delete(kind models.CategoryKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid category id")
			return
		}
		if kind == models.CategoryKindMeeting {
			err = h.orch.DeleteMeetingCategory(c.Request.Context(), id)
		} else {
			err = h.orch.DeleteEventCategory(c.Request.Context(), id)
		}
		if err != nil {
			apierr.Write(c, h.logger, err)
			return
		}
		response.NoContent(c)
	}
}
