// Package events serves association events: organizers, attendance, invitees, flyers and invitation
// dispatch.
package events

import (
	"context"
	"io"
	"sort"
	"strings"

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

// FlyerStore keeps flyer objects.
type FlyerStore interface {
	UploadFlyer(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FlyerURL(ctx context.Context, key string) (string, error)
	DeleteFlyer(ctx context.Context, key string) error
}

// Dispatcher delivers a message to the automation webhook.
type Dispatcher interface {
	Send(ctx context.Context, kind string, data any) error
}

// Event is an event with organizer names and its attendee and invitee lists.
type Event struct {
	models.Event
	Organizers []string    `json:"organizers"`
	InPerson   []uuid.UUID `json:"in_person"`
	Online     []uuid.UUID `json:"online"`
	Invitees   []uuid.UUID `json:"invitees"`
}

// Handler handles event HTTP endpoints. flyers and dispatcher may be nil when not configured.
type Handler struct {
	source     Snapshotter
	orch       *orchestrator.Orchestrator
	flyers     FlyerStore
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(source Snapshotter, orch *orchestrator.Orchestrator, flyers FlyerStore, dispatcher Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, orch: orch, flyers: flyers, dispatcher: dispatcher, logger: logger}
}

func ids(list []uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID{}, list...)
}

func view(s snapshot.State, e models.Event) Event {
	inPerson, online := s.Attendees(models.EventAttendees, e.ID)
	out := Event{
		Event:      e,
		Organizers: append([]string{}, s.OrganizerNames(e)...),
		InPerson:   ids(inPerson),
		Online:     ids(online),
		Invitees:   ids(s.Targets(models.EventInvitees, e.ID)),
	}
	return out
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /events?from=&to=&organizer_id=&q=, newest first.
func (h *Handler) List(c *gin.Context) {
	period, err := reports.ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	var organizer uuid.UUID
	if raw := c.Query("organizer_id"); raw != "" {
		if organizer, err = uuid.Parse(raw); err != nil {
			response.BadRequest(c, "invalid organizer_id")
			return
		}
	}
	s := h.source.Snapshot()
	q := c.Query("q")
	list := make([]Event, 0, len(s.Events))
	for _, e := range s.Events {
		if !period.Contains(e.Date) {
			continue
		}
		v := view(s, e)
		if organizer != uuid.Nil && !hasID(e.OrganizerIDs, organizer) {
			continue
		}
		if !utils.MatchesAll(q, e.Subject, e.Location, strings.Join(v.Organizers, " ")) {
			continue
		}
		list = append(list, v)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return models.ScheduledBefore(list[j].Date, list[j].StartTime, list[i].Date, list[i].StartTime)
	})
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s := h.source.Snapshot()
	e, found := s.Event(id)
	if !found {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, view(s, e))
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var in orchestrator.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = uuid.Nil
	e, err := h.orch.SaveEvent(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.Created(c, h.fresh(*e))
}

// Update handles PUT /events/:id. Organizers, attendance and invitees in the body replace the stored ones;
// the flyer is kept.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in orchestrator.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in.ID = id
	e, err := h.orch.SaveEvent(c.Request.Context(), in)
	if err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	response.OK(c, h.fresh(*e))
}

// fresh prefers the refreshed snapshot copy of e, which carries the resolved organizer kind and flyer.
func (h *Handler) fresh(e models.Event) Event {
	s := h.source.Snapshot()
	if stored, ok := s.Event(e.ID); ok {
		return view(s, stored)
	}
	return view(s, e)
}

// Delete handles DELETE /events/:id. The flyer object is removed after the event is gone; a failure
// there is only logged.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	e, _ := h.source.Snapshot().Event(id)
	if err := h.orch.DeleteEvent(ctx, id); err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	if e.FlyerKey != "" && h.flyers != nil {
		if err := h.flyers.DeleteFlyer(ctx, e.FlyerKey); err != nil {
			h.logger.Warn("delete flyer", zap.String("event_id", id.String()), zap.String("key", e.FlyerKey), zap.Error(err))
		}
	}
	response.NoContent(c)
}

func hasID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
