package participants

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	mem    *store.Memory
	orch   *orchestrator.Orchestrator
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemory()
	mem.SeedOrganizations(models.Organization{ID: "J-1", Name: "Acme Industrial"})
	fetcher := snapshot.New(mem, nil)
	require.NoError(t, fetcher.RefreshAll(context.Background()))
	orch := orchestrator.New(mem, fetcher, nil, nil)

	h := NewHandler(fetcher, orch, nil)
	r := gin.New()
	r.GET("/participants", h.List)
	r.GET("/participants/:id", h.Get)
	r.POST("/participants", h.Create)
	r.PUT("/participants/:id", h.Update)
	r.DELETE("/participants/:id", h.Delete)
	return &env{mem: mem, orch: orch, router: r}
}

func (e *env) commission(t *testing.T, name string) uuid.UUID {
	t.Helper()
	c, err := e.orch.SaveCategory(context.Background(), orchestrator.CategoryInput{Kind: models.CategoryKindMeeting, Name: name})
	require.NoError(t, err)
	return c.ID
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

func TestCreateListAndSearch(t *testing.T) {
	e := newEnv(t)
	energy := e.commission(t, "Energía")
	org := "J-1"

	w := e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{
		Name: "Ana Pérez", Role: "Gerente", OrganizationID: &org, CategoryIDs: []uuid.UUID{energy},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := data[Participant](t, w)
	assert.Equal(t, "Acme Industrial", created.Company)
	assert.Equal(t, []uuid.UUID{energy}, created.CategoryIDs)

	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Name: "Luis Gómez"}).Code)

	all := data[[]Participant](t, e.do(t, http.MethodGet, "/participants", nil))
	require.Len(t, all, 2)
	assert.Equal(t, "Ana Pérez", all[0].Name)

	found := data[[]Participant](t, e.do(t, http.MethodGet, "/participants?q=perez+ACME", nil))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	members := data[[]Participant](t, e.do(t, http.MethodGet, "/participants?category_id="+energy.String(), nil))
	assert.Len(t, members, 1)
	assert.Len(t, data[[]Participant](t, e.do(t, http.MethodGet, "/participants?organization_id=J-1", nil)), 1)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/participants?category_id=x", nil).Code)
}

func TestUpdateReplacesMemberships(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.commission(t, "A"), e.commission(t, "B"), e.commission(t, "C")
	w := e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Name: "P1", CategoryIDs: []uuid.UUID{a, b}})
	require.Equal(t, http.StatusCreated, w.Code)
	id := data[Participant](t, w).ID

	w = e.do(t, http.MethodPut, "/participants/"+id.String(), orchestrator.ParticipantInput{Name: "P1", CategoryIDs: []uuid.UUID{b, c, b}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := data[Participant](t, e.do(t, http.MethodGet, "/participants/"+id.String(), nil))
	assert.ElementsMatch(t, []uuid.UUID{b, c}, got.CategoryIDs)
}

func TestValidationAndErrors(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Email: "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := data[map[string]string](t, w)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/participants/"+uuid.NewString(), orchestrator.ParticipantInput{Name: "X"}).Code)
	w = e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Name: "X", CategoryIDs: []uuid.UUID{uuid.New()}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, data[map[string]string](t, w), "category_ids")
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/participants/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/participants/"+uuid.NewString(), nil).Code)

	a := e.commission(t, "A")
	e.mem.FailOn("InsertLinks:"+models.ParticipantCategories.Name, errors.New("write timeout"))
	w = e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Name: "P2", CategoryIDs: []uuid.UUID{a}})
	require.Equal(t, http.StatusBadGateway, w.Code)
	detail := data[map[string]any](t, w)
	assert.Equal(t, "insert "+models.ParticipantCategories.Name, detail["failed_step"])
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	a := e.commission(t, "A")
	w := e.do(t, http.MethodPost, "/participants", orchestrator.ParticipantInput{Name: "P1", CategoryIDs: []uuid.UUID{a}})
	id := data[Participant](t, w).ID

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/participants/"+id.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/participants/"+id.String(), nil).Code)

	links, err := e.mem.ListLinks(context.Background(), models.ParticipantCategories)
	require.NoError(t, err)
	assert.Empty(t, links)
}
