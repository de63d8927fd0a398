package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crucial707/blog/internal/metrics"
)

type key string

const UserIDKey key = "user_id"

// SessionCookieName is the HTTP-only cookie carrying the signed session token.
const SessionCookieName = "token"

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (int, error)
}

// UnauthorizedPolicy writes the response for a request the guard rejects.
// Implementations must not reveal why the token was rejected.
type UnauthorizedPolicy interface {
	Reject(w http.ResponseWriter, r *http.Request)
}

// RedirectPolicy sends the visitor to the login page.
type RedirectPolicy struct {
	Location string
}

func (p RedirectPolicy) Reject(w http.ResponseWriter, r *http.Request) {
	loc := p.Location
	if loc == "" {
		loc = "/admin"
	}
	http.Redirect(w, r, loc, http.StatusSeeOther)
}

// JSONPolicy answers 401 with a fixed JSON body.
type JSONPolicy struct{}

func (JSONPolicy) Reject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

// NewUnauthorizedPolicy maps a configured policy name ("redirect" or "json") to a policy.
func NewUnauthorizedPolicy(name, loginPath string) UnauthorizedPolicy {
	if name == "json" {
		return JSONPolicy{}
	}
	return RedirectPolicy{Location: loginPath}
}

// SessionGuard lets a request through only when its token cookie verifies.
// The user id from the token is stored in the request context.
func SessionGuard(verifier TokenVerifier, policy UnauthorizedPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(verifier, r)
			if err != nil {
				slog.Debug("session rejected", "path", r.URL.Path, "reason", err.Error())
				metrics.IncAuthRejection()
				policy.Reject(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// UserIDFromRequest reports the session user without rejecting anything.
// Public pages use it to adapt to a logged-in admin.
func UserIDFromRequest(verifier TokenVerifier, r *http.Request) (int, bool) {
	userID, err := authenticate(verifier, r)
	return userID, err == nil
}

func authenticate(verifier TokenVerifier, r *http.Request) (int, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return 0, err
	}
	if cookie.Value == "" {
		return 0, http.ErrNoCookie
	}
	return verifier.Verify(cookie.Value)
}

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the authenticated user id stored by SessionGuard.
func GetUserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}
