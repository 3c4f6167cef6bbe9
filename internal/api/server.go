// Package api provides the HTTP API for observing a running economy.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/ledger"
)

// Server serves the latest published day over HTTP.
type Server struct {
	Eng      *engine.Engine
	Ledger   *ledger.DB // Optional; history endpoints need it
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	latest atomic.Pointer[engine.Snapshot]
}

// Publish makes snap the state served to readers. Safe to call from the
// simulation goroutine while handlers run.
func (s *Server) Publish(snap engine.Snapshot) {
	s.latest.Store(&snap)
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	historyLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/markets", s.handleMarkets)
	mux.HandleFunc("/api/v1/history", RateLimitMiddleware(historyLimiter, s.handleHistory))
	mux.HandleFunc("/api/v1/days", RateLimitMiddleware(historyLimiter, s.handleDays))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "ledger", s.Ledger != nil)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ECONSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// snapshot returns the latest day or writes 503 when none exists yet.
func (s *Server) snapshot(w http.ResponseWriter) (*engine.Snapshot, bool) {
	snap := s.latest.Load()
	if snap == nil {
		http.Error(w, "no day simulated yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	status := map[string]any{
		"name":           "mini-economy",
		"run":            s.RunID,
		"day":            snap.Day,
		"population":     snap.Population,
		"factories":      snap.Factories,
		"inventory":      snap.Inventory,
		"consumer_money": snap.ConsumerMoney,
		"producer_money": snap.ProducerMoney,
		"money_supply":   snap.TotalMoney(),
		"stats":          snap.Stats,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, snap.Markets)
}

// handleHistory returns recorded closes for one good: ?good=Food&limit=N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		http.Error(w, "ledger not available", http.StatusServiceUnavailable)
		return
	}

	name := r.URL.Query().Get("good")
	if name == "" {
		name = economy.Food.String()
	}
	good, err := economy.ParseGood(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := s.Ledger.MarketHistory(s.RunID, good, queryLimit(r))
	if err != nil {
		slog.Error("market history query failed", "error", err)
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []ledger.MarketRow{}
	}
	writeJSON(w, rows)
}

// handleDays returns recorded day summaries: ?limit=N.
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		http.Error(w, "ledger not available", http.StatusServiceUnavailable)
		return
	}

	rows, err := s.Ledger.DayHistory(s.RunID, queryLimit(r))
	if err != nil {
		slog.Error("day history query failed", "error", err)
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []ledger.DayRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// queryLimit reads ?limit=, defaulting to 30 and capped at 1000.
func queryLimit(r *http.Request) int {
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
