package server

import (
	"net/http"
)

// IndexHandler answers the root liveness probe
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: s.config.GetAppName() + " API is running"})
	}
}

func (s *Server) TestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "API is working"})
	}
}

// NotFoundHandler is the JSON 404 for unknown routes. CORS preflights that
// reach it have already been answered by CorsMiddleware.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeErrorMessage(w, http.StatusNotFound, "Route not found")
	}
}
