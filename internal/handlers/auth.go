package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dupescan/internal/database"
	"dupescan/internal/logging"
	"dupescan/internal/metrics"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "dupescan_session"

// Bcrypt truncates input at 72 bytes, so longer passwords are rejected
// up front rather than silently clipped.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

type LoginRequest struct {
	Password string `json:"password"`
}

type SetupRequest struct {
	Password string `json:"password"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is the common reply shape for auth endpoints. ExpiresIn
// is seconds until the session expires, present on login and check.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}
	return nil
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeAuthResponse(w http.ResponseWriter, resp AuthResponse) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// CheckSetupRequired reports whether the initial password still needs
// to be configured. Open endpoint, the login page polls it.
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{
		"needsSetup": !h.db.HasUsers(r.Context()),
	})
}

// Setup creates the single account. Refused once a password exists.
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db.HasUsers(ctx) {
		http.Error(w, "Setup already completed", http.StatusForbidden)
		return
	}

	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := checkPasswordLength(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.CreateUser(ctx, req.Password); err != nil {
		logging.Error("Failed to create user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	logging.Info("Initial password configured")
	writeAuthResponse(w, AuthResponse{Success: true, Message: "Password configured successfully"})
}

// Login validates the password and issues a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(ctx, req.Password)
	if err != nil {
		logging.Warn("Failed login attempt")
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("User logged in, session expires in %v", database.SessionDuration)
	writeAuthResponse(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout deletes the server-side session and expires the cookie. The
// deletion is best effort, logout always succeeds for the client.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			logging.Error("failed to delete session during logout: %v", err)
		}
	}

	clearSessionCookie(w)
	writeAuthResponse(w, AuthResponse{Success: true, Message: "Logged out successfully"})
}

// CheckAuth reports whether the caller holds a valid session. An
// invalid cookie is cleared so the browser stops resending it.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.db.ValidateSession(r.Context(), cookie.Value); err != nil {
		clearSessionCookie(w)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeAuthResponse(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// openPaths are reachable without a session: the auth endpoints
// themselves, the login page and its assets, health probes, and the
// metrics scrape target.
var openPaths = map[string]bool{
	"/login.html":    true,
	"/css/login.css": true,
	"/js/login.js":   true,
	"/health":        true,
	"/healthz":       true,
	"/livez":         true,
	"/readyz":        true,
	"/metrics":       true,
	"/favicon.ico":   true,
}

func isOpenPath(path string) bool {
	return strings.HasPrefix(path, "/api/auth/") || openPaths[path]
}

// rejectUnauthenticated answers an unauthenticated request: 401 for API
// calls, a redirect to the login page for everything else.
func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login.html", http.StatusFound)
}

// AuthMiddleware gates every route behind a valid session except the
// open paths above.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOpenPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			rejectUnauthenticated(w, r)
			return
		}

		if _, err := h.db.ValidateSession(r.Context(), cookie.Value); err != nil {
			clearSessionCookie(w)
			rejectUnauthenticated(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ChangePassword rotates the password after verifying the current one.
// All existing sessions are invalidated by the database layer.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.db.ValidatePassword(ctx, req.CurrentPassword); err != nil {
		logging.Warn("Failed password change attempt, invalid current password")
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}
	if err := checkPasswordLength(req.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdatePassword(ctx, req.NewPassword); err != nil {
		logging.Error("Failed to update password: %v", err)
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	logging.Info("Password changed")
	writeAuthResponse(w, AuthResponse{Success: true, Message: "Password updated successfully"})
}
