package server

import (
	"net/http"
	"strconv"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

// handlePortfolioList handles GET /api/portfolios.
func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())
	portfolios, err := s.app.Storage.PortfolioStore().ListPortfolios(r.Context(), userID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}
	WriteJSON(w, http.StatusOK, portfolios)
}

// handlePortfolioGet handles GET /api/portfolios/{id}.
func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	portfolio, ok := s.ownedPortfolio(w, r, "")
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

// handlePortfolioAssets handles GET /api/portfolios/{id}/assets. Assets are
// revalued at the oracle's current price when one is available.
func (s *Server) handlePortfolioAssets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	portfolio, ok := s.ownedPortfolio(w, r, "/assets")
	if !ok {
		return
	}

	assets, err := s.app.Storage.PortfolioStore().ListAssets(r.Context(), portfolio.ID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	for _, asset := range assets {
		if price, _, err := s.app.Oracle.Price(r.Context(), asset.Symbol); err == nil {
			asset.Revalue(price)
		}
	}
	if assets == nil {
		assets = []*models.PortfolioAsset{}
	}
	WriteJSON(w, http.StatusOK, assets)
}

// handlePortfolioOrders handles GET /api/portfolios/{id}/orders.
func (s *Server) handlePortfolioOrders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	portfolio, ok := s.ownedPortfolio(w, r, "/orders")
	if !ok {
		return
	}

	orders, err := s.app.Storage.OrderStore().ListOrdersByPortfolio(r.Context(), portfolio.ID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	WriteJSON(w, http.StatusOK, orders)
}

// handlePortfolioTrades handles GET /api/portfolios/{id}/trades.
func (s *Server) handlePortfolioTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	portfolio, ok := s.ownedPortfolio(w, r, "/trades")
	if !ok {
		return
	}

	trades, err := s.app.Storage.TradeStore().ListTradesByPortfolio(r.Context(), portfolio.ID)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}
	WriteJSON(w, http.StatusOK, trades)
}

// handleMarketPrice handles GET /api/market/price/{symbol}.
func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/market/price/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	price, at, err := s.app.Oracle.Price(r.Context(), symbol)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"price":  price,
		"at":     at,
	})
}

// ownedPortfolio loads the portfolio from the path and checks ownership.
func (s *Server) ownedPortfolio(w http.ResponseWriter, r *http.Request, suffix string) (*models.Portfolio, bool) {
	raw := PathParam(r, "/api/portfolios/", suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid portfolio id")
		return nil, false
	}

	portfolio, err := s.app.Storage.PortfolioStore().GetPortfolio(r.Context(), id)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return nil, false
	}
	if portfolio.UserID != common.ResolveUserID(r.Context()) {
		WriteError(w, http.StatusForbidden, "portfolio belongs to another user")
		return nil, false
	}
	return portfolio, true
}
