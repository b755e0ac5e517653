package snapshot

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/pkg/response"
)

// RefreshResponse reports the outcome of a manual refresh. Failed collections kept their previous value.
type RefreshResponse struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	Complete    bool      `json:"complete"`
	Error       string    `json:"error,omitempty"`
}

// Handler exposes the fetcher over HTTP.
type Handler struct {
	fetcher *Fetcher
	logger  *zap.Logger
}

// NewHandler creates a snapshot handler.
func NewHandler(fetcher *Fetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// Refresh handles POST /snapshot/refresh. A partial failure still answers 200 with complete=false.
func (h *Handler) Refresh(c *gin.Context) {
	err := h.fetcher.RefreshAll(c.Request.Context())
	out := RefreshResponse{RefreshedAt: h.fetcher.Snapshot().RefreshedAt, Complete: err == nil}
	if err != nil {
		out.Error = err.Error()
	}
	response.OK(c, out)
}

// Status handles GET /snapshot: when the snapshot was last refreshed.
func (h *Handler) Status(c *gin.Context) {
	response.OK(c, gin.H{"refreshed_at": h.fetcher.Snapshot().RefreshedAt})
}
