package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/apierr"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/storage"
)

// FlyerResponse is returned after an upload.
type FlyerResponse struct {
	FlyerKey string `json:"flyer_key"`
	URL      string `json:"url,omitempty"`
}

// UploadFlyer handles POST /events/:id/flyer (multipart form, field "file"). The previous flyer object
// is removed once the new key is recorded.
func (h *Handler) UploadFlyer(c *gin.Context) {
	if h.flyers == nil {
		response.ServiceUnavailable(c, "flyer storage not configured")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, found := h.source.Snapshot().Event(id)
	if !found {
		response.NotFound(c, "event not found")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxFlyerSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > storage.MaxFlyerSize {
		response.BadRequest(c, "file exceeds 10MB")
		return
	}
	declared := fh.Header.Get("Content-Type")
	if !storage.ValidateFlyerType(declared, fh.Filename) {
		response.BadRequest(c, "flyer must be a JPEG, PNG, WebP or PDF file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read file")
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	contentType := storage.ContentTypeFor(declared, fh.Filename)
	key := storage.FlyerKey(id, contentType, fh.Filename)
	if err := h.flyers.UploadFlyer(ctx, key, contentType, f, fh.Size); err != nil {
		h.logger.Error("upload flyer", zap.String("event_id", id.String()), zap.Error(err))
		response.BadGateway(c, "failed to store flyer")
		return
	}
	if err := h.orch.SetEventFlyer(ctx, id, key); err != nil {
		apierr.Write(c, h.logger, err)
		return
	}
	if e.FlyerKey != "" && e.FlyerKey != key {
		if err := h.flyers.DeleteFlyer(ctx, e.FlyerKey); err != nil {
			h.logger.Warn("delete replaced flyer", zap.String("key", e.FlyerKey), zap.Error(err))
		}
	}
	url, _ := h.flyers.FlyerURL(ctx, key)
	response.Created(c, FlyerResponse{FlyerKey: key, URL: url})
}

// Flyer handles GET /events/:id/flyer by redirecting to a short-lived signed URL.
func (h *Handler) Flyer(c *gin.Context) {
	if h.flyers == nil {
		response.ServiceUnavailable(c, "flyer storage not configured")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, found := h.source.Snapshot().Event(id)
	if !found || e.FlyerKey == "" {
		response.NotFound(c, "flyer not found")
		return
	}
	url, err := h.flyers.FlyerURL(c.Request.Context(), e.FlyerKey)
	if err != nil {
		h.logger.Error("sign flyer url", zap.String("key", e.FlyerKey), zap.Error(err))
		response.Internal(c, "failed to sign flyer url")
		return
	}
	c.Redirect(http.StatusFound, url)
}
