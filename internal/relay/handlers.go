package relay

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codehive-dev/codehive/internal/protocol"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleInvite renders the codehive:// URI for an existing room. It
// does not require the admin token since the code alone carries no
// secret (the password, if any, is never echoed back here).
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.registry.HasRoom(code) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"inviteUrl": protocol.BuildInviteURI(s.cfg.PublicHost, s.cfg.PublicPort, code, ""),
	})
}

// handleListRooms returns every public, non-empty room as JSON.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GetPublicRooms())
}

// handleGetRoom returns one room's full snapshot by code.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	room := s.registry.GetRoom(code)
	if room == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, room.ToRoomInfo())
}
