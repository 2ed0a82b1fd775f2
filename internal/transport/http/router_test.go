package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/studygroup-api/internal/config"
	"github.com/studygroup-api/internal/domain"
	"github.com/studygroup-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCredentials struct {
	mu    sync.Mutex
	users map[string]string // email -> uid
}

func (s *stubCredentials) GetUserByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.Identity{UID: uid, Email: email}, nil
}

func (s *stubCredentials) CreateUser(_ context.Context, email, _ string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := "uid-" + email
	s.users[email] = uid
	return &domain.Identity{UID: uid, Email: email}, nil
}

func (s *stubCredentials) CustomToken(_ context.Context, uid string) (string, error) {
	return "custom-" + uid, nil
}

func (s *stubCredentials) VerifyIDToken(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", domain.ErrInvalidToken
	}
	return "u-good", nil
}

type outbox struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (o *outbox) SendEmail(_ context.Context, msg domain.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

type seqCodes struct{ next string }

func (c seqCodes) Generate(string, time.Time) (string, error) { return c.next, nil }

func newTestRouter(t *testing.T, burst int) (*Router, *outbox) {
	t.Helper()
	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		OTPTTL:         5 * time.Minute,
		RateLimitRPS:   0.001,
		RateLimitBurst: burst,
	}
	mail := &outbox{}
	rt := NewRouter(cfg, &Deps{
		Ledger:      memory.NewOTPLedger(),
		Credentials: &stubCredentials{users: map[string]string{"old@b.com": "u-old"}},
		Mailer:      mail,
		Codes:       seqCodes{next: "654321"},
	})
	t.Cleanup(rt.Close)
	return rt, mail
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_OTPSignUpFlow(t *testing.T) {
	rt, mail := newTestRouter(t, 100)

	rec, body := do(t, rt, http.MethodPost, "/api/auth/request-otp", `{"email":"new@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].HTML, "654321")

	rec, body = do(t, rt, http.MethodPost, "/api/auth/verify-otp", `{"email":"new@b.com","otp":"111111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid OTP", body["error"])

	rec, body = do(t, rt, http.MethodPost, "/api/auth/verify-otp", `{"email":"new@b.com","otp":"654321","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["userExists"])
	assert.Equal(t, "uid-new@b.com", body["uid"])
	assert.Equal(t, "custom-uid-new@b.com", body["token"])

	rec, _ = do(t, rt, http.MethodPost, "/api/auth/verify-otp", `{"email":"new@b.com","otp":"654321"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginAndVerifyToken(t *testing.T) {
	rt, _ := newTestRouter(t, 100)

	rec, body := do(t, rt, http.MethodPost, "/api/auth/login", `{"email":"old@b.com","password":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-old", body["uid"])

	rec, _ = do(t, rt, http.MethodPost, "/api/auth/login", `{"email":"ghost@b.com","password":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, rt, http.MethodPost, "/verify-token", `{"token":"good"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-good", body["uid"])

	rec, body = do(t, rt, http.MethodPost, "/verify-token", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestRouter_PublicEndpoints(t *testing.T) {
	rt, _ := newTestRouter(t, 100)

	rec, _ := do(t, rt, http.MethodGet, "/", "")
	assert.Equal(t, "Hello, Render!", rec.Body.String())

	rec, body := do(t, rt, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", body["status"])

	rec, _ = do(t, rt, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "studygroup_")
}

func TestRouter_RateLimitsAuthEndpoints(t *testing.T) {
	rt, _ := newTestRouter(t, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := do(t, rt, http.MethodPost, "/api/auth/login", `{"email":"old@b.com","password":"x"}`)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// status and token endpoints are not limited
	for i := 0; i < 3; i++ {
		rec, _ := do(t, rt, http.MethodGet, "/api/status", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	rt, _ := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
