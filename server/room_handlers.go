package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-room-server/auth"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/rooms"
	"github.com/jrsteele09/go-room-server/token"
)

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TemplateID  string `json:"templateId"`
}

type joinRoomRequest struct {
	Role string `json:"role"`
}

type recordingRequest struct {
	Recording *bool `json:"recording"`
}

func (s *Server) ListRoomsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.rooms.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateRoomHandler runs the create saga. A provider failure is a 502 whose
// body carries the id of the room that was stored locally.
func (s *Server) CreateRoomHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		var req createRoomRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		view, err := s.rooms.Create(r.Context(), claims.UserID, req.Name, rooms.CreateOptions{
			Description: req.Description,
			TemplateID:  req.TemplateID,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (s *Server) GetRoomHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.rooms.Get(r.Context(), r.PathValue("roomId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// RoomTokenHandler issues a room-access credential. ?role= is advisory.
func (s *Server) RoomTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		requested := token.Role(r.URL.Query().Get("role"))
		cred, err := s.rooms.AccessToken(r.Context(), r.PathValue("roomId"), claims.UserID, requested)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cred)
	}
}

func (s *Server) JoinRoomHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		var req joinRoomRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, err)
				return
			}
		}
		res, err := s.rooms.Join(r.Context(), r.PathValue("roomId"), claims.UserID, token.Role(req.Role))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) RecordingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		var req recordingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Recording == nil {
			writeErrorMessage(w, http.StatusBadRequest, "recording is required")
			return
		}
		view, err := s.rooms.SetRecording(r.Context(), r.PathValue("roomId"), claims.UserID, *req.Recording)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ParticipantsHandler returns the live participants of a room, or every
// stored presence entry with ?history=true.
func (s *Server) ParticipantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.PathValue("roomId")
		if _, err := s.rooms.Get(r.Context(), roomID); err != nil {
			writeError(w, r, err)
			return
		}

		history, _ := strconv.ParseBool(r.URL.Query().Get("history"))
		if !history {
			writeJSON(w, http.StatusOK, s.presence.Snapshot(roomID))
			return
		}
		entries, err := s.presence.History(r.Context(), roomID, false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*token.SessionClaims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrAuthenticationRequired)
		return nil, false
	}
	return claims, true
}
