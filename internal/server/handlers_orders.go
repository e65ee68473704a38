package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
	"github.com/raeisisep-star/titan/internal/oracle"
	"github.com/raeisisep-star/titan/internal/services/execution"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, execution.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, execution.ErrNotCancelable),
		errors.Is(err, execution.ErrOrderAlreadyExecuting):
		return http.StatusConflict
	case errors.Is(err, execution.ErrInsufficientBalance),
		errors.Is(err, execution.ErrInsufficientAssets),
		errors.Is(err, execution.ErrInvalidQuantity),
		errors.Is(err, execution.ErrUnknownSymbol),
		errors.Is(err, oracle.ErrUnknownSymbol):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrNoPrice):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleOrderSubmit handles POST /api/orders.
func (s *Server) handleOrderSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.OrderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.UserID = common.ResolveUserID(r.Context())

	result, err := s.app.Engine.Submit(r.Context(), req)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, result)
}

// handleOrderGet handles GET /api/orders/{id}.
func (s *Server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id, ok := s.orderID(w, r, "")
	if !ok {
		return
	}

	order, err := s.app.Storage.OrderStore().GetOrder(r.Context(), id)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if order.UserID != common.ResolveUserID(r.Context()) {
		WriteError(w, http.StatusForbidden, "order belongs to another user")
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

// handleOrderCancel handles DELETE /api/orders/{id} and POST /api/orders/{id}/cancel.
func (s *Server) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete, http.MethodPost) {
		return
	}

	suffix := ""
	if strings.HasSuffix(r.URL.Path, "/cancel") {
		suffix = "/cancel"
	}
	id, ok := s.orderID(w, r, suffix)
	if !ok {
		return
	}

	userID := common.ResolveUserID(r.Context())
	if err := s.app.Engine.Cancel(r.Context(), userID, id); err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"canceled": true,
		"order_id": id,
	})
}

// handleOpenOrders handles GET /api/orders/open.
func (s *Server) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())
	orders, err := s.app.Engine.OpenOrders(r.Context(), userID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	WriteJSON(w, http.StatusOK, orders)
}

// orderID parses the order id path segment, writing a 400 on failure.
func (s *Server) orderID(w http.ResponseWriter, r *http.Request, suffix string) (int64, bool) {
	raw := PathParam(r, "/api/orders/", suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
