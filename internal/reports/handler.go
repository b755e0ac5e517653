package reports

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/pkg/response"
)

const (
	reportTitle = "Informe de actividades CIEC.Now"
	csvType     = "text/csv; charset=utf-8"
)

// Snapshotter provides the current snapshot.
type Snapshotter interface {
	Snapshot() snapshot.State
}

// Handler serves exports, the paginated report and stats.
type Handler struct {
	source   Snapshotter
	capacity int
	logger   *zap.Logger
}

// NewHandler creates a reports handler. capacity is the number of activities per content page.
func NewHandler(source Snapshotter, capacity int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultPageCapacity
	}
	return &Handler{source: source, capacity: capacity, logger: logger}
}

func (h *Handler) period(c *gin.Context) (Period, bool) {
	p, err := ParsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return Period{}, false
	}
	return p, true
}

func (h *Handler) sendCSV(c *gin.Context, name string, rows [][]string) {
	body, err := EncodeCSV(rows, Delimiter)
	if err != nil {
		h.logger.Error("encode csv", zap.String("export", name), zap.Error(err))
		response.Internal(c, "failed to build export")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, csvType, body)
}

// ActivitiesCSV handles GET /reports/activities.csv?from=&to=.
func (h *Handler) ActivitiesCSV(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	acts := Activities(h.source.Snapshot(), p)
	h.sendCSV(c, "actividades_"+p.Label()+".csv", ActivityRows(acts))
}

// MembershipsCSV handles GET /reports/memberships.csv?from=&to=&categories=&fields=. Without categories
// the commissions organizing activities in the period are used.
func (h *Handler) MembershipsCSV(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	fields, err := ParseFields(c.Query("fields"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s := h.source.Snapshot()

	var committees []uuid.UUID
	if raw := c.Query("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				response.BadRequest(c, "invalid category id "+part)
				return
			}
			committees = append(committees, id)
		}
	} else {
		committees = OrganizingCommittees(Activities(s, p))
	}
	h.sendCSV(c, "comisiones_"+p.Label()+".csv", MembershipRows(s, committees, fields))
}

// Pages handles GET /reports/activities: every page of the report as JSON.
func (h *Handler) Pages(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	pages := Paginate(Activities(h.source.Snapshot(), p), h.capacity, p)
	response.OK(c, gin.H{
		"title":  reportTitle,
		"width":  PageWidth,
		"height": PageHeight,
		"pages":  pages,
	})
}

// Page handles GET /reports/activities/pages/:n: the markup of page n for the rasterizer.
func (h *Handler) Page(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		response.BadRequest(c, "invalid page number")
		return
	}
	pages := Paginate(Activities(h.source.Snapshot(), p), h.capacity, p)
	if n >= len(pages) {
		response.NotFound(c, "page not found")
		return
	}
	var buf bytes.Buffer
	if err := RenderPage(&buf, reportTitle, pages[n], p); err != nil {
		h.logger.Error("render report page", zap.Int("page", n), zap.Error(err))
		response.Internal(c, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Stats handles GET /stats?from=&to=&top=.
func (h *Handler) Stats(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	top := 10
	if raw := c.Query("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			response.BadRequest(c, "invalid top")
			return
		}
		top = v
	}
	response.OK(c, ComputeStats(h.source.Snapshot(), p, top))
}
