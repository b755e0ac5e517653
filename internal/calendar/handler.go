package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
)

// Snapshotter provides the current snapshot.
type Snapshotter interface {
	Snapshot() snapshot.State
}

// Config controls the public feed.
type Config struct {
	Name     string
	PastDays int
	Location *time.Location
}

// Handler serves GET /calendar.ics.
type Handler struct {
	source Snapshotter
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a calendar handler.
func NewHandler(source Snapshotter, cfg Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{source: source, cfg: cfg, logger: logger, now: time.Now}
}

func (h *Handler) items(now time.Time) []Item {
	return Items(h.source.Snapshot(), now.AddDate(0, 0, -h.cfg.PastDays), h.cfg.Location)
}

// Feed handles GET /calendar.ics. It is public.
func (h *Handler) Feed(c *gin.Context) {
	now := h.now()
	items := h.items(now)
	body := Format(items, Options{Name: h.cfg.Name, Stamp: now})

	h.logger.Debug("calendar feed served", zap.Int("items", len(items)))
	c.Header("Content-Disposition", `inline; filename="ciecnow.ics"`)
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// Agenda handles GET /agenda: the feed items as JSON for the in-app agenda.
func (h *Handler) Agenda(c *gin.Context) {
	items := h.items(h.now())
	if items == nil {
		items = []Item{}
	}
	response.OK(c, items)
}
