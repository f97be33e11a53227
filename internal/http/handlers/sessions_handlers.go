package handlers

import (
	"net/http"

	"parktrack/internal/http/middleware"
	"parktrack/internal/repository"
)

// NewSessionsMeHandler returns GET /sessions/me handler serving the calling
// driver's history.
func NewSessionsMeHandler(repo *repository.SessionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok || claims.DriverID == "" {
			writeError(w, http.StatusUnauthorized, "driver identity missing from token")
			return
		}

		sessions, err := repo.ListByDriver(r.Context(), claims.DriverID, 50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch sessions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
	}
}

// NewActiveSessionsHandler returns GET /sessions/active handler for the
// operator dashboard.
func NewActiveSessionsHandler(repo *repository.SessionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := repo.ListActive(r.Context(), 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch active sessions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
	}
}
