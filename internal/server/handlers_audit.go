package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/raeisisep-star/titan/internal/models"
)

// handleAuditRecent handles GET /api/audit/recent?limit=n.
func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			WriteError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	events, err := s.app.Storage.AuditStore().Recent(r.Context(), limit)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}
	WriteJSON(w, http.StatusOK, events)
}

// handleAuditByEntity handles GET /api/audit/{entityType}/{entityID}.
func (s *Server) handleAuditByEntity(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/audit/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	entityID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || entityID <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	events, err := s.app.Storage.AuditStore().ListByEntity(r.Context(), parts[0], entityID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}
	WriteJSON(w, http.StatusOK, events)
}
