package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestAuthHandlersVerifyRefresh(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc, func(id string) bool { return id == "sess-1" })

	tokens, _ := svc.IssueSessionToken("sess-1")

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status: %v", err)
	}
	var verified map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&verified)
	if verified["session_id"] != "sess-1" {
		t.Fatalf("unexpected verify body: %v", verified)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status: %v", err)
	}
	var refreshed TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil || refreshed.AccessToken == "" {
		t.Fatalf("decode refresh: %v", err)
	}
	if id, err := svc.ValidateToken(refreshed.AccessToken); err != nil || id != "sess-1" {
		t.Fatalf("refreshed token invalid: %v", err)
	}
}

func TestAuthHandlersRefreshExpiredSession(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc, func(string) bool { return false })

	tokens, _ := svc.IssueSessionToken("gone")
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}

func TestAuthHandlersMissingToken(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("s", time.Hour), nil)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/auth/verify", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for garbage token")
	}
}
