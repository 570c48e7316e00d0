package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// mockSessionToken builds a Clerk-shaped JWT for tests.
func mockSessionToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-key-for-testing-only"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestClerkAuthMiddlewareMissingHeader(t *testing.T) {
	handler := ClerkAuthMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slot-calls", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestClerkAuthMiddlewareBadFormat(t *testing.T) {
	handler := ClerkAuthMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slot-calls", nil)
	req.Header.Set("Authorization", mockSessionToken(t, "user_123"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("token without Bearer prefix: status = %d, want 401", rec.Code)
	}
}

func TestMockSessionTokenShape(t *testing.T) {
	signed := mockSessionToken(t, "user_123")

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-key-for-testing-only"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse mock token: %v", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != "user_123" {
		t.Errorf("subject = %q (err %v), want user_123", sub, err)
	}
}

func TestRequireModerator(t *testing.T) {
	InitModerators([]string{"user_mod", " user_other "})
	t.Cleanup(func() { InitModerators(nil) })

	handler := RequireModerator(okHandler())

	cases := []struct {
		name     string
		clerkID  string
		wantCode int
	}{
		{"moderator", "user_mod", http.StatusOK},
		{"trimmed moderator", "user_other", http.StatusOK},
		{"regular viewer", "user_viewer", http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/slot-calls/x/accept", nil)
		ctx := context.WithValue(req.Context(), ClerkIDKey, tc.clerkID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != tc.wantCode {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.wantCode)
		}
	}
}

func TestRequireModeratorWithoutAuth(t *testing.T) {
	InitModerators([]string{"user_mod"})
	t.Cleanup(func() { InitModerators(nil) })

	handler := RequireModerator(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/slot-calls/x/accept", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
