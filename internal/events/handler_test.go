package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/internal/automation"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
)

type memoryFlyers struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryFlyers) UploadFlyer(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memoryFlyers) FlyerURL(ctx context.Context, key string) (string, error) {
	return "https://flyers.example/" + key + "?sig=1", nil
}

func (m *memoryFlyers) DeleteFlyer(ctx context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type recordingDispatcher struct {
	kind string
	sent []Invitation
	err  error
}

func (d *recordingDispatcher) Send(ctx context.Context, kind string, data any) error {
	if d.err != nil {
		return d.err
	}
	d.kind = kind
	d.sent = append(d.sent, data.(Invitation))
	return nil
}

type env struct {
	orch       *orchestrator.Orchestrator
	flyers     *memoryFlyers
	dispatcher *recordingDispatcher
	router     *gin.Engine

	commission models.Category
	ana, luis  models.Participant
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedOrganizations(models.Organization{ID: "J-1", Name: "Acme"})
	fetcher := snapshot.New(mem, nil)
	e := &env{
		orch:       orchestrator.New(mem, fetcher, nil, nil),
		flyers:     &memoryFlyers{objects: make(map[string][]byte)},
		dispatcher: &recordingDispatcher{},
	}
	h := NewHandler(fetcher, e.orch, e.flyers, e.dispatcher, nil)

	r := gin.New()
	r.GET("/events", h.List)
	r.GET("/events/:id", h.Get)
	r.POST("/events", h.Create)
	r.PUT("/events/:id", h.Update)
	r.DELETE("/events/:id", h.Delete)
	r.POST("/events/:id/flyer", h.UploadFlyer)
	r.GET("/events/:id/flyer", h.Flyer)
	r.POST("/events/:id/invitations/dispatch", h.DispatchInvitations)
	e.router = r

	c, err := e.orch.SaveCategory(ctx, orchestrator.CategoryInput{Kind: models.CategoryKindMeeting, Name: "Energía"})
	require.NoError(t, err)
	e.commission = *c
	org := "J-1"
	a, err := e.orch.SaveParticipant(ctx, orchestrator.ParticipantInput{Name: "Ana", Email: "ana@ciec.test", OrganizationID: &org})
	require.NoError(t, err)
	l, err := e.orch.SaveParticipant(ctx, orchestrator.ParticipantInput{Name: "Luis"})
	require.NoError(t, err)
	e.ana, e.luis = *a, *l
	return e
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

func (e *env) upload(t *testing.T, id uuid.UUID, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/events/"+id.String()+"/flyer", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
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

func (e *env) forum(t *testing.T) Event {
	t.Helper()
	w := e.do(t, http.MethodPost, "/events", orchestrator.EventInput{
		Subject: "Foro energético", OrganizerKind: models.OrganizerMeetingCategory,
		OrganizerIDs: []uuid.UUID{e.commission.ID}, Date: "2024-05-10", StartTime: "08:30",
		InPerson: []uuid.UUID{e.ana.ID}, Invitees: []uuid.UUID{e.luis.ID, e.ana.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[Event](t, w)
}

func TestCreateAndUpdate(t *testing.T) {
	e := newEnv(t)
	ev := e.forum(t)
	assert.Equal(t, models.OrganizerMeetingCategory, ev.OrganizerKind)
	assert.Equal(t, []string{"Energía"}, ev.Organizers)
	assert.Equal(t, []uuid.UUID{e.ana.ID}, ev.InPerson)
	assert.ElementsMatch(t, []uuid.UUID{e.ana.ID, e.luis.ID}, ev.Invitees)

	general, err := e.orch.SaveCategory(context.Background(), orchestrator.CategoryInput{Kind: models.CategoryKindEvent, Name: "Foros"})
	require.NoError(t, err)
	w := e.do(t, http.MethodPut, "/events/"+ev.ID.String(), orchestrator.EventInput{
		Subject: "Foro energético", OrganizerKind: models.OrganizerCategory,
		OrganizerIDs: []uuid.UUID{general.ID}, Date: "2024-05-10", StartTime: "08:30",
		Online: []uuid.UUID{e.luis.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := data[Event](t, e.do(t, http.MethodGet, "/events/"+ev.ID.String(), nil))
	assert.Equal(t, models.OrganizerCategory, got.OrganizerKind)
	assert.Equal(t, []string{"Foros"}, got.Organizers)
	assert.Empty(t, got.InPerson)
	assert.Equal(t, []uuid.UUID{e.luis.ID}, got.Online)
	assert.Empty(t, got.Invitees)

	w = e.do(t, http.MethodPost, "/events", orchestrator.EventInput{Subject: "Sin organizador", Date: "2024-05-10", StartTime: "08:00"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, data[map[string]string](t, w), "organizer_ids")
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ev := e.forum(t)

	assert.Len(t, data[[]Event](t, e.do(t, http.MethodGet, "/events?q=energia", nil)), 1)
	assert.Len(t, data[[]Event](t, e.do(t, http.MethodGet, "/events?organizer_id="+e.commission.ID.String(), nil)), 1)
	assert.Empty(t, data[[]Event](t, e.do(t, http.MethodGet, "/events?organizer_id="+uuid.NewString(), nil)))
	assert.Empty(t, data[[]Event](t, e.do(t, http.MethodGet, "/events?from=2024-06-01", nil)))
	assert.Equal(t, ev.ID, data[[]Event](t, e.do(t, http.MethodGet, "/events?to=2024-05-31", nil))[0].ID)
}

func TestFlyerUploadReplaceAndDelete(t *testing.T) {
	e := newEnv(t)
	ev := e.forum(t)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/events/"+ev.ID.String()+"/flyer", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.upload(t, ev.ID, "clip.mp4", "video/mp4", []byte("x")).Code)

	w := e.upload(t, ev.ID, "afiche.png", "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := data[FlyerResponse](t, w)
	assert.Equal(t, []byte("png-bytes"), e.flyers.objects[first.FlyerKey])

	w = e.do(t, http.MethodGet, "/events/"+ev.ID.String()+"/flyer", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://flyers.example/"+first.FlyerKey+"?sig=1", w.Header().Get("Location"))

	w = e.upload(t, ev.ID, "afiche.pdf", "application/pdf", []byte("pdf-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	second := data[FlyerResponse](t, w)
	assert.Equal(t, []string{first.FlyerKey}, e.flyers.deleted, "replaced flyer is removed")

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/events/"+ev.ID.String(), orchestrator.EventInput{
		Subject: "Renombrado", OrganizerKind: models.OrganizerMeetingCategory,
		OrganizerIDs: []uuid.UUID{e.commission.ID}, Date: "2024-05-10", StartTime: "08:30",
	}).Code)
	assert.Equal(t, second.FlyerKey, data[Event](t, e.do(t, http.MethodGet, "/events/"+ev.ID.String(), nil)).FlyerKey)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/events/"+ev.ID.String(), nil).Code)
	assert.Equal(t, []string{first.FlyerKey, second.FlyerKey}, e.flyers.deleted)
	assert.Empty(t, e.flyers.objects)
}

func TestDispatchInvitations(t *testing.T) {
	e := newEnv(t)
	ev := e.forum(t)

	w := e.do(t, http.MethodPost, "/events/"+ev.ID.String()+"/invitations/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, data[DispatchResult](t, w).Invitees)

	require.Len(t, e.dispatcher.sent, 1)
	assert.Equal(t, automation.KindEventInvitation, e.dispatcher.kind)
	inv := e.dispatcher.sent[0]
	assert.Equal(t, "Energía", inv.Organizer)
	require.Len(t, inv.Invitees, 2)
	assert.Equal(t, "Ana", inv.Invitees[0].Name)
	assert.Equal(t, "Acme", inv.Invitees[0].Company)
	assert.Empty(t, inv.FlyerURL)

	e.dispatcher.err = errors.New("webhook status 500")
	w = e.do(t, http.MethodPost, "/events/"+ev.ID.String()+"/invitations/dispatch", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "webhook status 500")

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/events/"+uuid.NewString()+"/invitations/dispatch", nil).Code)
}

func TestDispatchWithoutInvitees(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/events", orchestrator.EventInput{
		Subject: "Cerrado", OrganizerKind: models.OrganizerMeetingCategory,
		OrganizerIDs: []uuid.UUID{e.commission.ID}, Date: "2024-05-10", StartTime: "08:30",
	})
	id := data[Event](t, w).ID
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/events/"+id.String()+"/invitations/dispatch", nil).Code)
	assert.Empty(t, e.dispatcher.sent)
}

func TestUnconfiguredCollaborators(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(snapshot.New(store.NewMemory(), nil), nil, nil, nil, nil)
	r := gin.New()
	r.GET("/events/:id/flyer", h.Flyer)
	r.POST("/events/:id/invitations/dispatch", h.DispatchInvitations)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/events/"+uuid.NewString()+"/flyer", nil),
		httptest.NewRequest(http.MethodPost, "/events/"+uuid.NewString()+"/invitations/dispatch", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	}
}
