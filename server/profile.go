package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MarkussPinkovskis/ColorGen/avatar"
	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/middleware"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())

	userdb, err := s.users.GetByID(r.Context(), principal.UserID)
	if err != nil || userdb == nil {
		slog.Error("failed to fetch user", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "profile.html", map[string]any{
		"Email":     userdb.Email,
		"CreatedAt": userdb.CreatedAt.Format("2006-01-02 15:04:05"),
		"Avatar":    userdb.Avatar,
	})
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())

	// 10 MB in-memory limit for the multipart form
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	file, handler, err := r.FormFile("avatar")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	filename, err := s.avatars.Upload(r.Context(), principal.UserID, file, handler.Filename)
	if err != nil {
		switch {
		case errors.Is(err, avatar.ErrNoFile):
			s.writeJSONError(w, http.StatusBadRequest, "No file uploaded")
		case errors.Is(err, avatar.ErrInvalidFileType):
			s.writeJSONError(w, http.StatusBadRequest, "Invalid file type")
		default:
			slog.Error("failed to update avatar", "error", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypeAvatarUpdated),
		eventlogger.WithData(map[string]string{
			"user_id": principal.UserID.String(),
			"file":    filename,
		}),
	))

	s.writeJSON(w, http.StatusOK, map[string]string{"avatar": filename})
}
