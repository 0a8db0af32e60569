package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidstream/account-service/internal/core/token"
)

func newTestManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.Config{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return m
}

func runAuth(t *testing.T, mgr *token.Manager, decorate func(*http.Request)) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUserID string
	handler := Auth(mgr)(func(c echo.Context) error {
		gotUserID, _ = c.Get(UserIDKey).(string)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, gotUserID
}

func TestAuth_BearerHeader(t *testing.T) {
	mgr := newTestManager(t)
	tok, err := mgr.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec, userID := runAuth(t, mgr, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if userID != "user-42" {
		t.Fatalf("expected user-42 in context, got %q", userID)
	}
}

func TestAuth_Cookie(t *testing.T) {
	mgr := newTestManager(t)
	tok, _ := mgr.IssueAccess("user-42")

	rec, userID := runAuth(t, mgr, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if userID != "user-42" {
		t.Fatalf("expected user-42 in context, got %q", userID)
	}
}

func TestAuth_MissingCredentials(t *testing.T) {
	mgr := newTestManager(t)
	rec, _ := runAuth(t, mgr, func(r *http.Request) {})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_BadHeaderShape(t *testing.T) {
	mgr := newTestManager(t)
	rec, _ := runAuth(t, mgr, func(r *http.Request) {
		r.Header.Set("Authorization", "Token abc")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_RefreshTokenRejectedAsAccess(t *testing.T) {
	mgr := newTestManager(t)
	refresh, _ := mgr.IssueRefresh("user-42")

	rec, _ := runAuth(t, mgr, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+refresh)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token on access path, got %d", rec.Code)
	}
}
