package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/internal/auth"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/permissions"
	"github.com/ciecnow/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, profile models.UserProfile) (*gin.Engine, string) {
	t.Helper()
	mem := store.NewMemory()
	u := &models.User{Email: profile.Email, Password: "x"}
	require.NoError(t, mem.CreateUser(context.Background(), u, &profile))

	jwtService := auth.NewJWTService("secret", 1)
	token, err := jwtService.Generate(u.ID, u.Email)
	require.NoError(t, err)

	r := gin.New()
	r.Use(CORS("*"))
	api := r.Group("", JWT(jwtService), Profile(mem, nil))
	api.GET("/meetings", RequireCapability(permissions.View, permissions.Meetings), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).String())
	})
	api.POST("/meetings", RequireCapability(permissions.Create, permissions.Meetings), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r, token
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCapabilityMiddleware(t *testing.T) {
	viewer := 3
	r, token := newRouter(t, models.UserProfile{Email: "v@ciec.test", Approved: true, RoleID: &viewer})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/meetings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/meetings", "garbage").Code)

	w := do(r, http.MethodGet, "/meetings", token)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/meetings", token).Code)
}

func TestUnapprovedProfileIsForbidden(t *testing.T) {
	admin := 1
	r, token := newRouter(t, models.UserProfile{Email: "a@ciec.test", Approved: false, RoleID: &admin})
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/meetings", token).Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t, models.UserProfile{Email: "c@ciec.test"})
	w := do(r, http.MethodOptions, "/meetings", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSEchoesListedOriginOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://admin.ciec.test, http://localhost:5173"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://admin.ciec.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://admin.ciec.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
