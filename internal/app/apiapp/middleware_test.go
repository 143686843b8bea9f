package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
)

type memorySessionStore struct {
	sessions map[string]authsvc.SessionRecord
	refresh  map[string]string
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		sessions: make(map[string]authsvc.SessionRecord),
		refresh:  make(map[string]string),
	}
}

func (s *memorySessionStore) Create(_ context.Context, session authsvc.SessionRecord, refreshToken string) error {
	s.sessions[session.SID] = session
	s.refresh[refreshToken] = session.SID
	return nil
}

func (s *memorySessionStore) GetSession(_ context.Context, sid string) (authsvc.SessionRecord, error) {
	session, ok := s.sessions[sid]
	if !ok {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) GetByRefreshToken(_ context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	sid, ok := s.refresh[refreshToken]
	if !ok {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return s.GetSession(context.Background(), sid)
}

func (s *memorySessionStore) RotateRefresh(_ context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if _, ok := s.refresh[oldRefreshToken]; !ok {
		return authsvc.ErrRefreshNotFound
	}
	delete(s.refresh, oldRefreshToken)
	s.refresh[newRefreshToken] = sid
	session := s.sessions[sid]
	session.ExpiresAt = expiresAt
	s.sessions[sid] = session
	return nil
}

func (s *memorySessionStore) DeleteSession(_ context.Context, sid string) error {
	delete(s.sessions, sid)
	return nil
}

func TestAuthMiddlewareRejectsMissingBearerToken(t *testing.T) {
	authService := authsvc.NewService(authsvc.NewJWTManager("secret", time.Minute), newMemorySessionStore(), 0)
	mw := AuthMiddleware(authService, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/nearby", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be called without a token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareSetsIdentityForValidToken(t *testing.T) {
	authService := authsvc.NewService(authsvc.NewJWTManager("secret", time.Minute), newMemorySessionStore(), 0)
	mw := AuthMiddleware(authService, zap.NewNop())

	userID := uuid.New()
	issued, err := authService.IssueForUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/nearby", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("identity missing in context")
		}
		if identity.UserID != userID {
			t.Fatalf("identity mismatch: got %s want %s", identity.UserID, userID)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAuthMiddlewareRejectsTokenAfterLogout(t *testing.T) {
	authService := authsvc.NewService(authsvc.NewJWTManager("secret", time.Minute), newMemorySessionStore(), 0)
	mw := AuthMiddleware(authService, zap.NewNop())

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	issued, err := authService.IssueForUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := authService.ValidateAccessToken(ctx, issued.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := authService.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/nearby", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be called after logout")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{name: "valid", value: "Bearer abc", want: "abc", ok: true},
		{name: "case insensitive scheme", value: "bearer abc", want: "abc", ok: true},
		{name: "missing scheme", value: "abc", ok: false},
		{name: "empty token", value: "Bearer ", ok: false},
		{name: "empty header", value: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractBearerToken(tc.value)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("extractBearerToken(%q) = %q,%v want %q,%v", tc.value, got, ok, tc.want, tc.ok)
			}
		})
	}
}
