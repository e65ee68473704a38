package server

import (
	"net/http"
	"strconv"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

// handleStrategyList handles GET /api/strategies and POST /api/strategies.
func (s *Server) handleStrategyList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := common.ResolveUserID(r.Context())
		strategies, err := s.app.Storage.StrategyStore().ListStrategies(r.Context(), userID)
		if err != nil {
			WriteError(w, statusForError(err), err.Error())
			return
		}
		if strategies == nil {
			strategies = []*models.Strategy{}
		}
		WriteJSON(w, http.StatusOK, strategies)

	case http.MethodPost:
		s.handleStrategyCreate(w, r)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleStrategyCreate creates a new strategy in active status.
func (s *Server) handleStrategyCreate(w http.ResponseWriter, r *http.Request) {
	var strategy models.Strategy
	if !DecodeJSON(w, r, &strategy) {
		return
	}
	strategy.UserID = common.ResolveUserID(r.Context())
	if strategy.Status == "" {
		strategy.Status = models.StrategyStatusActive
	}

	id, err := s.app.Storage.NextID("strategy")
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	strategy.ID = id

	if err := strategy.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.Storage.StrategyStore().SaveStrategy(r.Context(), &strategy); err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, &strategy)
}

// handleStrategyGet handles GET /api/strategies/{id}.
func (s *Server) handleStrategyGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	strategy, ok := s.ownedStrategy(w, r, "")
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, strategy)
}

// handleStrategyRun handles POST /api/strategies/{id}/run, forcing one tick
// outside the scheduler.
func (s *Server) handleStrategyRun(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	strategy, ok := s.ownedStrategy(w, r, "/run")
	if !ok {
		return
	}

	results, err := s.app.Runner.RunStrategy(r.Context(), strategy.ID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if results == nil {
		results = []*models.ExecutionResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}

// handleStrategyReactivate handles POST /api/strategies/{id}/reactivate.
func (s *Server) handleStrategyReactivate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	strategy, ok := s.ownedStrategy(w, r, "/reactivate")
	if !ok {
		return
	}

	if err := s.app.Runner.Reactivate(r.Context(), strategy.ID); err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"strategy_id": strategy.ID,
		"status":      models.StrategyStatusActive,
	})
}

// ownedStrategy loads the strategy from the path and checks ownership.
func (s *Server) ownedStrategy(w http.ResponseWriter, r *http.Request, suffix string) (*models.Strategy, bool) {
	raw := PathParam(r, "/api/strategies/", suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid strategy id")
		return nil, false
	}

	strategy, err := s.app.Storage.StrategyStore().GetStrategy(r.Context(), id)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return nil, false
	}
	if strategy.UserID != common.ResolveUserID(r.Context()) {
		WriteError(w, http.StatusForbidden, "strategy belongs to another user")
		return nil, false
	}
	return strategy, true
}
