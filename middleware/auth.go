package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/user"
	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

// Auth resolves the session cookie into a Principal on the request
// context. Requests without a valid session pass through unauthenticated;
// gating happens in RequireAuth / RequireAuthAPI.
func Auth(sessions session.Repository, users user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				clearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.GetByID(r.Context(), sess.UserID)
			if err != nil || u == nil {
				slog.Info("session without user", "user_id", sess.UserID)
				clearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, Principal{UserID: u.ID, Email: u.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects page routes to the login form when the request
// carries no principal.
func RequireAuth(redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				http.Redirect(w, r, redirectTo, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthAPI answers JSON 401 for API routes without a principal.
func RequireAuthAPI() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Not logged in"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated identity from context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := GetPrincipal(ctx)
	return ok
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
