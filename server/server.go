package server

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/MarkussPinkovskis/ColorGen/avatar"
	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/middleware"
	"github.com/MarkussPinkovskis/ColorGen/palette"
	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/user"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	users       user.Repository
	sessions    session.Repository
	avatars     *avatar.Manager
	palettes    *palette.Service
	events      *eventlogger.Worker
	templateDir string
	staticDir   string
	router      chi.Router
}

func New(
	users user.Repository,
	sessions session.Repository,
	avatars *avatar.Manager,
	palettes *palette.Service,
	events *eventlogger.Worker,
	templateDir, staticDir string,
) *Server {
	s := &Server{
		users:       users,
		sessions:    sessions,
		avatars:     avatars,
		palettes:    palettes,
		events:      events,
		templateDir: templateDir,
		staticDir:   staticDir,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(middleware.Auth(s.sessions, s.users))

	// Public routes
	router.Get("/login", s.handleLoginPage)
	router.Post("/login", s.handleLogin)
	router.Post("/register", s.handleRegister)
	router.Get("/logout", s.handleLogout)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	router.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(s.avatars.Dir()))))

	// Protected page routes - redirect to login
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth("/login"))

		r.Get("/", s.handleHome)
		r.Get("/profile", s.handleProfile)
	})

	// Protected API routes - JSON 401
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthAPI())

		r.Post("/color-recomend", s.handleColorPairing)
		r.Post("/color-random", s.handleColorRandom)
		r.Post("/upload-avatar", s.handleUploadAvatar)
	})

	return router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	tmpl, err := template.ParseFiles(
		filepath.Join(s.templateDir, "base.html"),
		filepath.Join(s.templateDir, page),
	)
	if err != nil {
		slog.Error("failed to parse template", "error", err, "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("failed to render template", "error", err, "page", page)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())
	s.render(w, "home.html", map[string]any{
		"Email": principal.Email,
	})
}
