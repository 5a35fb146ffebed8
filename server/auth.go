package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/middleware"
	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/user"
)

// Unknown email and wrong password share one message so callers can't
// enumerate accounts.
const invalidCredentialsMsg = "Invalid email or password"

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, "login.html", map[string]any{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	userdb, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to fetch user", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if userdb == nil || s.users.VerifyPassword(userdb.PasswordHash, password) != nil {
		s.render(w, "login.html", map[string]any{"Error": invalidCredentialsMsg})
		return
	}

	sess, err := s.sessions.Create(ctx, userdb.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypeUserLoggedIn),
		eventlogger.WithData(map[string]string{
			"user_id":    userdb.ID.String(),
			"email":      userdb.Email,
			"session_id": sess.ID.String(),
		}),
	))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	registeredUser, err := s.users.Register(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailExists):
			s.render(w, "login.html", map[string]any{"Error": "Email already exists!"})
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrBlankPassword):
			s.render(w, "login.html", map[string]any{"Error": "Email and password are required"})
		default:
			slog.Error("failed to register user", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypeUserRegistered),
		eventlogger.WithData(map[string]string{
			"user_id": registeredUser.ID.String(),
			"email":   registeredUser.Email,
		}),
	))

	s.render(w, "login.html", map[string]any{"Success": "Registration successful! Please login."})
}

// handleLogout destroys the session unconditionally; logging out without
// one is a no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err == nil {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
		s.events.Log(eventlogger.NewEvent(
			eventlogger.WithType(eventlogger.TypeUserLoggedOut),
		))
	}

	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
