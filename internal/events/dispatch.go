package events

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/automation"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
)

// Invitee is one recipient of an event invitation.
type Invitee struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email,omitempty"`
	Phone   string    `json:"phone,omitempty"`
	Role    string    `json:"role,omitempty"`
	Company string    `json:"company,omitempty"`
}

// Invitation is the payload sent to the automation webhook for one event.
type Invitation struct {
	EventID       uuid.UUID            `json:"event_id"`
	Subject       string               `json:"subject"`
	Date          string               `json:"date"`
	StartTime     string               `json:"start_time"`
	EndTime       string               `json:"end_time,omitempty"`
	Location      string               `json:"location,omitempty"`
	Description   string               `json:"description,omitempty"`
	Organizer     string               `json:"organizer"`
	OrganizerKind models.OrganizerKind `json:"organizer_kind"`
	FlyerURL      string               `json:"flyer_url,omitempty"`
	Invitees      []Invitee            `json:"invitees"`
}

// DispatchResult is returned to the caller.
type DispatchResult struct {
	EventID  uuid.UUID `json:"event_id"`
	Invitees int       `json:"invitees"`
}

// BuildInvitation resolves the invitee list and organizer name of e. Invitees missing from the
// snapshot are skipped.
func BuildInvitation(s snapshot.State, e models.Event) Invitation {
	inv := Invitation{
		EventID:       e.ID,
		Subject:       e.Subject,
		Date:          e.Date,
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
		Location:      e.Location,
		Description:   e.Description,
		Organizer:     strings.Join(s.OrganizerNames(e), ", "),
		OrganizerKind: e.OrganizerKind,
		Invitees:      []Invitee{},
	}
	for _, id := range s.Targets(models.EventInvitees, e.ID) {
		p, ok := s.Participant(id)
		if !ok {
			continue
		}
		in := Invitee{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Role: p.Role}
		if p.OrganizationID != nil {
			if o, ok := s.Organization(*p.OrganizationID); ok {
				in.Company = o.Name
			}
		}
		inv.Invitees = append(inv.Invitees, in)
	}
	sort.SliceStable(inv.Invitees, func(i, j int) bool { return inv.Invitees[i].Name < inv.Invitees[j].Name })
	return inv
}

// DispatchInvitations handles POST /events/:id/invitations/dispatch.
func (h *Handler) DispatchInvitations(c *gin.Context) {
	if h.dispatcher == nil {
		response.ServiceUnavailable(c, "automation webhook not configured")
		return
	}
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
	if e.Cancelled {
		response.BadRequest(c, "event is cancelled")
		return
	}
	inv := BuildInvitation(s, e)
	if len(inv.Invitees) == 0 {
		response.BadRequest(c, "event has no invitees")
		return
	}

	ctx := c.Request.Context()
	if e.FlyerKey != "" && h.flyers != nil {
		if url, err := h.flyers.FlyerURL(ctx, e.FlyerKey); err == nil {
			inv.FlyerURL = url
		}
	}
	if err := h.dispatcher.Send(ctx, automation.KindEventInvitation, inv); err != nil {
		h.logger.Error("dispatch invitations", zap.String("event_id", id.String()), zap.Error(err))
		response.BadGateway(c, "invitation dispatch failed: "+err.Error())
		return
	}
	h.logger.Info("invitations dispatched", zap.String("event_id", id.String()), zap.Int("invitees", len(inv.Invitees)))
	response.OK(c, DispatchResult{EventID: id, Invitees: len(inv.Invitees)})
}
