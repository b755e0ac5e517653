package views

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/middleware"
	"github.com/ciecnow/backend/pkg/response"
)

// NavigateRequest is the body for POST /views/navigate.
type NavigateRequest struct {
	View   Key        `json:"view" binding:"required"`
	EditID *uuid.UUID `json:"edit_id"`
}

// StateResponse is the caller's navigation state plus the screens they may open.
type StateResponse struct {
	State
	Available []Key `json:"available"`
}

// Handler exposes a Navigator over HTTP.
type Handler struct {
	nav *Navigator
}

// NewHandler creates a views handler.
func NewHandler(nav *Navigator) *Handler {
	return &Handler{nav: nav}
}

// Get handles GET /views.
func (h *Handler) Get(c *gin.Context) {
	subject := middleware.Subject(c)
	st := h.nav.Current(middleware.UserID(c), subject)
	response.OK(c, StateResponse{State: st, Available: nonNilKeys(Available(subject))})
}

// Navigate handles POST /views/navigate.
func (h *Handler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	subject := middleware.Subject(c)
	st, err := h.nav.Navigate(middleware.UserID(c), subject, req.View, req.EditID)
	switch {
	case errors.Is(err, ErrUnknownView), errors.Is(err, ErrNotEditable):
		response.BadRequest(c, err.Error())
		return
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
		return
	}
	response.OK(c, StateResponse{State: st, Available: nonNilKeys(Available(subject))})
}

func nonNilKeys(keys []Key) []Key {
	if keys == nil {
		return []Key{}
	}
	return keys
}
