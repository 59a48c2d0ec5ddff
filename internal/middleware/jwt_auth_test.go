package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/session"
)

const testCSRFToken = "test-csrf-token"

func signToken(t *testing.T, claims *models.JwtCustomClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("supersecretjwtkey"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func freshClaims() *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UserID:    42,
		Email:     "alice@example.com",
		CSRFToken: testCSRFToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// echoWith wires the auth middleware ahead of a handler that records the
// session it received.
func echoWith(extra ...echo.MiddlewareFunc) (*echo.Echo, *session.Context) {
	e := echo.New()
	captured := &session.Context{}
	chain := append([]echo.MiddlewareFunc{JWTAuthMiddleware()}, extra...)
	handler := func(c echo.Context) error {
		*captured = c.Get(SessionKey).(session.Context)
		return c.NoContent(http.StatusOK)
	}
	e.GET("/probe", handler, chain...)
	e.POST("/probe", handler, chain...)
	return e, captured
}

func TestJWTAuthValidToken(t *testing.T) {
	e, captured := echoWith()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, freshClaims()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != 42 {
		t.Errorf("session user id = %d, want 42", captured.UserID)
	}
	if captured.Email != "alice@example.com" {
		t.Errorf("session email = %q", captured.Email)
	}
	if captured.CSRFValidated {
		t.Error("CSRF should not be validated without the header")
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e, _ := echoWith()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthBadSignature(t *testing.T) {
	e, _ := echoWith()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, freshClaims())
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e, _ := echoWith()

	claims := freshClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCSRFValidatedWithMatchingHeader(t *testing.T) {
	e, captured := echoWith()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, freshClaims()))
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !captured.CSRFValidated {
		t.Error("CSRF should be validated with a matching header")
	}
}

func TestRequireCSRFBlocksMutations(t *testing.T) {
	e, _ := echoWith(RequireCSRF())

	// GET passes without a CSRF token.
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, freshClaims()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}

	// POST without the token is rejected.
	req = httptest.NewRequest(http.MethodPost, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, freshClaims()))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("POST status = %d, want 403", rec.Code)
	}

	// POST with a matching token goes through.
	req = httptest.NewRequest(http.MethodPost, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, freshClaims()))
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST with token status = %d, want 200", rec.Code)
	}
}
