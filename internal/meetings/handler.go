// Package meetings serves commission meetings and their attendance.
package meetings

import (
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/apierr"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/reports"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/utils"
)

// Snapshotter provides the current snapshot.
type Snapshotter interface {
	Snapshot() snapshot.State
}

// Meeting is a meeting with its commission name and attendance lists.
type Meeting struct {
	models.Meeting
	Category string      `json:"category"`
	InPerson []uuid.UUID `json:"in_person"`
	Online   []uuid.UUID `json:"online"`
}

// Handler handles meeting HTTP endpoints.
type Handler struct {
	source Snapshotter
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewHandler creates a meetings handler.
func NewHandler(source Snapshotter, orch *orchestrator.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, orch: orch, logger: logger}
}

func view(s snapshot.State, m models.Meeting) Meeting {
	out := Meeting{Meeting: m, InPerson: []uuid.UUID{}, Online: []uuid.UUID{}}
	if c, ok := s.Category(models.CategoryKindMeeting, m.CategoryID); ok {
		out.Category = c.Name
	}
	inPerson, online := s.Attendees(models.MeetingAttendees, m.ID)
	out.InPerson = append(out.InPerson, inPerson...)
	out.Online = append(out.Online, online...)
	return out
}

// List handles GET /meetings?from=&to=&category_id=&q=, newest first.
func (h *Handler) List(c *gin.Context) {
	period, err := reports.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	var category uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		if category, err = uuid.Parse(raw); err != nil {
			response.BadRequest(c, "invalid category_id")
			return
		}
	}
	s := h.source.Snapshot()
	q := c.Query("q")
	list := make([]Meeting, 0, len(s.Meetings))
	for _, m := range s.Meetings {
		if !period.Contains(m.Date) || (category != uuid.Nil && m.CategoryID != category) {
			continue
		}
		v := view(s, m)
		if !utils.MatchesAll(q, m.Subject, m.Location, v.Category) {
			continue
		}
		list = append(list, v)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return models.ScheduledBefore(list[j].Date, list[j].StartTime, list[i].Date, list[i].StartTime)
	})
	response.OK(c, list)
}

// Get handles GET /meetings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	s := h.source.Snapshot()
	m, ok := s.Meeting(id)
	if !ok {
		response.NotFound(c, "meeting not found")
		return
	}
	response.OK(c, view(s, m))
}

// Create handles POST /meetings.
func (h *Handler) Create(c *gin.Context) {
	var in orchestrator.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = uuid.Nil
	m, err := h.orch.SaveMeeting(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.Created(c, view(h.source.Snapshot(), *m))
}

// Update handles PUT /meetings/:id. Both attendance lists in the body replace the stored ones.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	var in orchestrator.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = id
	m, err := h.orch.SaveMeeting(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.OK(c, view(h.source.Snapshot(), *m))
}

// Delete handles DELETE /meetings/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	if err := h.orch.DeleteMeeting(c.Request.Context(), id); err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.NoContent(c)
}
