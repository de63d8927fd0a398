package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/crucial707/blog/internal/auth"
	"github.com/crucial707/blog/internal/metrics"
	"github.com/crucial707/blog/internal/middleware"
	"github.com/crucial707/blog/internal/models"
)

// Authenticator is implemented by *auth.Service.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Register(ctx context.Context, username, password string) (*models.User, error)
}

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth     Authenticator
	Verifier middleware.TokenVerifier
	Render   Renderer

	// SessionTTL sets the cookie Max-Age. Zero leaves it a browser-session cookie.
	SessionTTL    time.Duration
	SecureCookies bool
}

// ==========================
// Login page
// ==========================
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromRequest(h.Verifier, r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.Render.Render(w, r, http.StatusOK, "admin/index", map[string]any{"locals": locals("Admin")})
}

// ==========================
// Login (same 401 body for unknown user and wrong password)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if !bindAndValidate(w, r, &input) {
		return
	}

	token, user, err := h.Auth.Login(r.Context(), input.Username, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.IncLoginAttempt("invalid")
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		metrics.IncLoginAttempt("error")
		internalError(w, r, "login", err)
		return
	}
	metrics.IncLoginAttempt("success")

	h.setSessionCookie(w, token)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  user,
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if !bindAndValidate(w, r, &input) {
		return
	}

	user, err := h.Auth.Register(r.Context(), input.Username, input.Password)
	if errors.Is(err, auth.ErrDuplicateUsername) {
		JSONError(w, "username already in use", http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, r, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user created",
		"user":    user,
	})
}

// ==========================
// Logout
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Unauthorized is the landing page for a redirect policy pointed at /unauthorized.
func (h *AuthHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, http.StatusUnauthorized, "admin/unauthorized", map[string]any{"locals": locals("Unauthorized")})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if h.SessionTTL > 0 {
		c.MaxAge = int(h.SessionTTL.Seconds())
	}
	http.SetCookie(w, c)
}
