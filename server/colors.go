package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/middleware"
	"github.com/MarkussPinkovskis/ColorGen/palette"
)

type colorRequest struct {
	Color string `json:"color"`
}

func (s *Server) handleColorPairing(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "No JSON body received")
		return
	}

	colors, err := s.palettes.SuggestPairing(r.Context(), req.Color)
	if err != nil {
		if errors.Is(err, palette.ErrNoColor) {
			s.writeJSONError(w, http.StatusBadRequest, "No color provided")
			return
		}
		slog.Error("color pairing failed", "error", err)
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logPaletteEvent(r, "pairing", req.Color)
	s.writeJSON(w, http.StatusOK, map[string]any{"colors": colors})
}

func (s *Server) handleColorRandom(w http.ResponseWriter, r *http.Request) {
	result, err := s.palettes.SuggestRandom(r.Context())
	if err != nil {
		slog.Error("random palette failed", "error", err)
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logPaletteEvent(r, "random", result.Primary.Hex)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"primary": result.Primary,
		"colors":  result.Colors,
	})
}

func (s *Server) logPaletteEvent(r *http.Request, mode, seed string) {
	principal, _ := middleware.GetPrincipal(r.Context())
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypePaletteRequested),
		eventlogger.WithData(map[string]string{
			"user_id": principal.UserID.String(),
			"mode":    mode,
			"seed":    seed,
		}),
	))
}
