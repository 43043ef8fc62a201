package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/rooms"
	"github.com/rs/zerolog/log"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error  string `json:"error"`
	RoomID string `json:"roomId,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps a domain error to its HTTP status. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusForError(err)
	resp := errorResponse{Error: msg}

	var provErr *rooms.ProviderError
	if errors.As(err, &provErr) {
		resp.RoomID = provErr.RoomID
	}
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func statusForError(err error) (int, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "Authentication required"
	case apperrors.Is(err, apperrors.ErrInvalidLogin):
		return http.StatusUnauthorized, "Invalid credentials"
	case apperrors.Is(err, apperrors.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid token"
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, publicMessage(err)
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, publicMessage(err)
	case apperrors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusConflict, publicMessage(err)
	case apperrors.Is(err, apperrors.ErrRoomUnavailable):
		return http.StatusConflict, publicMessage(err)
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		return http.StatusBadRequest, publicMessage(err)
	case apperrors.Is(err, apperrors.ErrExternalProvider):
		return http.StatusBadGateway, publicMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// publicMessage drops the "[component op]" prefixes from an error chain.
func publicMessage(err error) string {
	msg := err.Error()
	for strings.HasPrefix(msg, "[") {
		i := strings.Index(msg, "] ")
		if i < 0 {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: malformed JSON body", apperrors.ErrInvalidRequest)
	}
	return nil
}
