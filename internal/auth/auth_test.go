package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/queue"
)

type memoryResets struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func (m *memoryResets) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.tokens[token] = userID
	return token, nil
}

func (m *memoryResets) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return uuid.Nil, ErrResetTokenInvalid
	}
	delete(m.tokens, token)
	return id, nil
}

type recordingNotifier struct {
	sent []queue.NotificationPayload
}

func (r *recordingNotifier) EnqueuePasswordReset(ctx context.Context, p queue.NotificationPayload) error {
	r.sent = append(r.sent, p)
	return nil
}

type authFixture struct {
	router   *gin.Engine
	jwt      *JWTService
	notifier *recordingNotifier
	mem      *store.Memory
}

func newAuthFixture() *authFixture {
	gin.SetMode(gin.TestMode)
	f := &authFixture{
		jwt:      NewJWTService("test-secret", 1),
		notifier: &recordingNotifier{},
		mem:      store.NewMemory(),
	}
	h := NewHandler(f.mem, f.jwt, &memoryResets{tokens: map[string]uuid.UUID{}}, f.notifier, nil)
	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/password/reset", h.RequestReset)
	r.POST("/auth/password/confirm", h.ConfirmReset)
	f.router = r
	return f
}

func (f *authFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type tokenBody struct {
	Success bool          `json:"success"`
	Data    TokenResponse `json:"data"`
}

func TestSignupCreatesPendingProfile(t *testing.T) {
	f := newAuthFixture()
	w := f.post(t, "/auth/signup", SignupRequest{Email: "Ana@CIEC.test", Password: "long-enough", FullName: "Ana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body tokenBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Profile.Approved)
	assert.Equal(t, "ana@ciec.test", body.Data.Profile.Email)

	claims, err := f.jwt.Validate(body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, body.Data.Profile.ID, claims.UserID)

	dup := f.post(t, "/auth/signup", SignupRequest{Email: "ana@ciec.test", Password: "long-enough", FullName: "Ana"})
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, f.post(t, "/auth/signup", SignupRequest{Email: "luis@ciec.test", Password: "long-enough", FullName: "Luis"}).Code)

	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{Email: "luis@ciec.test", Password: "wrong"}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{Email: "nobody@ciec.test", Password: "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/login", map[string]string{"email": "not-an-email"}).Code)

	w := f.post(t, "/auth/login", LoginRequest{Email: "LUIS@ciec.test", Password: "long-enough"})
	require.Equal(t, http.StatusOK, w.Code)
	var body tokenBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, f.post(t, "/auth/signup", SignupRequest{Email: "eva@ciec.test", Password: "old-password", FullName: "Eva"}).Code)

	assert.Equal(t, http.StatusOK, f.post(t, "/auth/password/reset", ResetRequest{Email: "ghost@ciec.test"}).Code)
	assert.Empty(t, f.notifier.sent)

	require.Equal(t, http.StatusOK, f.post(t, "/auth/password/reset", ResetRequest{Email: "eva@ciec.test"}).Code)
	require.Len(t, f.notifier.sent, 1)
	token := f.notifier.sent[0].Token

	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/password/confirm", ConfirmResetRequest{Token: "bogus", Password: "new-password"}).Code)
	require.Equal(t, http.StatusOK, f.post(t, "/auth/password/confirm", ConfirmResetRequest{Token: token, Password: "new-password"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/password/confirm", ConfirmResetRequest{Token: token, Password: "new-password"}).Code, "token is single use")

	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{Email: "eva@ciec.test", Password: "old-password"}).Code)
	assert.Equal(t, http.StatusOK, f.post(t, "/auth/login", LoginRequest{Email: "eva@ciec.test", Password: "new-password"}).Code)
}

func TestValidateRejectsForeignToken(t *testing.T) {
	token, err := NewJWTService("one", 1).Generate(uuid.New(), "a@b.c")
	require.NoError(t, err)
	_, err = NewJWTService("two", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRequiresIssuerAndExpiry(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()
	sign := func(claims Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return token
	}

	noIssuer := sign(Claims{UserID: id, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	_, err := svc.Validate(noIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry := sign(Claims{UserID: id, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}})
	_, err = svc.Validate(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	good, err := svc.Generate(id, "a@b.c")
	require.NoError(t, err)
	claims, err := svc.Validate(good)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
}
