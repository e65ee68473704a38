package server

import (
	"net/http"
	"strings"
	"time"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Orders
	mux.HandleFunc("/api/orders/open", s.handleOpenOrders)
	mux.HandleFunc("/api/orders/", s.routeOrders)
	mux.HandleFunc("/api/orders", s.handleOrderSubmit)

	// Portfolios
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)
	mux.HandleFunc("/api/portfolios", s.handlePortfolioList)

	// Strategies
	mux.HandleFunc("/api/strategies/", s.routeStrategies)
	mux.HandleFunc("/api/strategies", s.handleStrategyList)

	// Market data
	mux.HandleFunc("/api/market/price/", s.handleMarketPrice)

	// Audit
	mux.HandleFunc("/api/audit/recent", s.handleAuditRecent)
	mux.HandleFunc("/api/audit/", s.handleAuditByEntity)
}

// routeOrders dispatches /api/orders/{id} and /api/orders/{id}/cancel.
func (s *Server) routeOrders(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	switch {
	case strings.HasSuffix(rest, "/cancel"):
		s.handleOrderCancel(w, r)
	case rest != "" && !strings.Contains(rest, "/"):
		if r.Method == http.MethodDelete {
			s.handleOrderCancel(w, r)
			return
		}
		s.handleOrderGet(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routePortfolios dispatches /api/portfolios/{id} and its sub-resources.
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/portfolios/")
	switch {
	case strings.HasSuffix(rest, "/assets"):
		s.handlePortfolioAssets(w, r)
	case strings.HasSuffix(rest, "/orders"):
		s.handlePortfolioOrders(w, r)
	case strings.HasSuffix(rest, "/trades"):
		s.handlePortfolioTrades(w, r)
	case rest != "" && !strings.Contains(rest, "/"):
		s.handlePortfolioGet(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeStrategies dispatches /api/strategies/{id} and its actions.
func (s *Server) routeStrategies(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/strategies/")
	switch {
	case strings.HasSuffix(rest, "/run"):
		s.handleStrategyRun(w, r)
	case strings.HasSuffix(rest, "/reactivate"):
		s.handleStrategyReactivate(w, r)
	case rest != "" && !strings.Contains(rest, "/"):
		s.handleStrategyGet(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
