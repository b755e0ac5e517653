package categories

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
)

type env struct {
	mem     *store.Memory
	fetcher *snapshot.Fetcher
	orch    *orchestrator.Orchestrator
	router  *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemory()
	fetcher := snapshot.New(mem, nil)
	orch := orchestrator.New(mem, fetcher, nil, nil)
	h := NewHandler(fetcher, orch, nil)

	r := gin.New()
	for prefix, kind := range map[string]models.CategoryKind{
		"/commissions":      models.CategoryKindMeeting,
		"/event-categories": models.CategoryKindEvent,
	} {
		g := r.Group(prefix)
		g.GET("", h.List(kind))
		g.POST("", h.Create(kind))
		g.PUT("/:id", h.Update(kind))
		g.DELETE("/:id", h.Delete(kind))
	}
	r.GET("/commissions/:id/members", h.Members)
	return &env{mem: mem, fetcher: fetcher, orch: orch, router: r}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func (e *env) create(t *testing.T, prefix, name string) models.Category {
	t.Helper()
	w := e.do(t, http.MethodPost, prefix, SaveRequest{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[models.Category](t, w)
}

func TestCommissionLifecycle(t *testing.T) {
	e := newEnv(t)
	c := e.create(t, "/commissions", "Energía")
	e.create(t, "/commissions", "Agroindustria")
	assert.Equal(t, models.CategoryKindMeeting, c.Kind)

	ana, err := e.orch.SaveParticipant(context.Background(), orchestrator.ParticipantInput{Name: "Ana", CategoryIDs: []uuid.UUID{c.ID}})
	require.NoError(t, err)

	list := data[[]Category](t, e.do(t, http.MethodGet, "/commissions", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Agroindustria", list[0].Name)
	assert.Equal(t, 1, list[1].Members)

	assert.Len(t, data[[]Category](t, e.do(t, http.MethodGet, "/commissions?q=energia", nil)), 1)

	members := data[[]models.Participant](t, e.do(t, http.MethodGet, "/commissions/"+c.ID.String()+"/members", nil))
	require.Len(t, members, 1)
	assert.Equal(t, ana.ID, members[0].ID)

	w := e.do(t, http.MethodPut, "/commissions/"+c.ID.String(), SaveRequest{Name: "Energía y Minas"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Energía y Minas", data[models.Category](t, w).Name)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/commissions/"+c.ID.String(), nil).Code)
	assert.Len(t, e.fetcher.Snapshot().MeetingCategories, 1)
	assert.Empty(t, e.fetcher.Snapshot().Links[models.ParticipantCategories.Name])
}

func TestCommissionDeleteBlockedByMeeting(t *testing.T) {
	e := newEnv(t)
	c1 := e.create(t, "/commissions", "C1")
	_, err := e.orch.SaveMeeting(context.Background(), orchestrator.MeetingInput{
		Subject: "M1", CategoryID: c1.ID, Date: "2024-03-01", StartTime: "09:00",
	})
	require.NoError(t, err)

	w := e.do(t, http.MethodDelete, "/commissions/"+c1.ID.String(), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "M1")
	detail := data[map[string]any](t, w)
	assert.EqualValues(t, 1, detail["count"])

	list := data[[]Category](t, e.do(t, http.MethodGet, "/commissions", nil))
	require.Len(t, list, 1, "blocked commission is still present")
	assert.Equal(t, 1, list[0].Meetings)
}

func TestEventCategories(t *testing.T) {
	e := newEnv(t)
	cat := e.create(t, "/event-categories", "Foros")
	assert.Equal(t, models.CategoryKindEvent, cat.Kind)

	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodPost, "/event-categories", SaveRequest{}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/commissions/"+cat.ID.String()+"/members", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodDelete, "/event-categories/x", nil).Code)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/event-categories/"+cat.ID.String(), nil).Code)
	assert.Empty(t, data[[]Category](t, e.do(t, http.MethodGet, "/event-categories", nil)))
}
