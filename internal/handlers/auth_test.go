package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetupAndLoginFlow(t *testing.T) {
	h, _, _ := setupHandlers(t)

	// Fresh install needs setup.
	rec := httptest.NewRecorder()
	h.CheckSetupRequired(rec, httptest.NewRequest("GET", "/api/auth/setup-required", nil))
	var setupState map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&setupState); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !setupState["needsSetup"] {
		t.Fatal("fresh install should need setup")
	}

	rec = postJSON(t, h.Setup, "/api/auth/setup", SetupRequest{Password: "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("setup status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Second setup attempt is rejected.
	rec = postJSON(t, h.Setup, "/api/auth/setup", SetupRequest{Password: "other"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("repeated setup status = %d, want 403", rec.Code)
	}

	// Wrong password.
	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	// Correct password sets a session cookie.
	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{Password: "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", rec.Code)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("login did not set a session cookie")
	}

	// CheckAuth accepts the cookie.
	req := httptest.NewRequest("GET", "/api/auth/check", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	h.CheckAuth(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("check status = %d, want 200", rec.Code)
	}

	// Logout invalidates the session.
	req = httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	h.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/auth/check", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	h.CheckAuth(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("check after logout status = %d, want 401", rec.Code)
	}
}

func TestSetupPasswordRules(t *testing.T) {
	h, _, _ := setupHandlers(t)

	tests := []struct {
		name     string
		password string
		want     int
	}{
		{"too short", "abc", http.StatusBadRequest},
		{"minimum length", "abcdef", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Setup, "/api/auth/setup", SetupRequest{Password: tt.password})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	h, _, _ := setupHandlers(t)

	protected := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"api blocked without session", "/api/duplicates", http.StatusUnauthorized},
		{"page redirects without session", "/index.html", http.StatusFound},
		{"auth endpoint open", "/api/auth/login", http.StatusOK},
		{"health open", "/healthz", http.StatusOK},
		{"metrics open", "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareWithValidSession(t *testing.T) {
	h, _, _ := setupHandlers(t)

	if rec := postJSON(t, h.Setup, "/api/auth/setup", SetupRequest{Password: "hunter22"}); rec.Code != http.StatusOK {
		t.Fatalf("setup failed: %d", rec.Code)
	}
	loginRec := postJSON(t, h.Login, "/api/auth/login", LoginRequest{Password: "hunter22"})
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login failed: %d", loginRec.Code)
	}

	var sessionCookie *http.Cookie
	for _, c := range loginRec.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie from login")
	}

	protected := h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/duplicates", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated request = %d, want 200", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	h, _, _ := setupHandlers(t)

	if rec := postJSON(t, h.Setup, "/api/auth/setup", SetupRequest{Password: "original1"}); rec.Code != http.StatusOK {
		t.Fatalf("setup failed: %d", rec.Code)
	}

	rec := postJSON(t, h.ChangePassword, "/api/auth/password",
		PasswordChangeRequest{CurrentPassword: "wrong", NewPassword: "replacement"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password status = %d, want 401", rec.Code)
	}

	rec = postJSON(t, h.ChangePassword, "/api/auth/password",
		PasswordChangeRequest{CurrentPassword: "original1", NewPassword: "replacement"})
	if rec.Code != http.StatusOK {
		t.Fatalf("change password status = %d, want 200", rec.Code)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{Password: "replacement"})
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password status = %d, want 200", rec.Code)
	}
}
