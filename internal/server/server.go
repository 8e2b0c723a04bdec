// Package server exposes the webhook ingestion endpoint and the read API
// over plain net/http.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/montrack/montrack/internal/ingest"
	"github.com/montrack/montrack/internal/ledger"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/wallets"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 16 << 20 // 16 MiB

// Server is the public HTTP surface.
type Server struct {
	orchestrator *ingest.Orchestrator
	engine       *ledger.Engine
	stores       store.Stores
	roster       *wallets.Service
	authToken    string
	httpServer   *http.Server
	logger       zerolog.Logger
}

// New builds the server and its routes.
func New(port string, orchestrator *ingest.Orchestrator, engine *ledger.Engine, stores store.Stores, roster *wallets.Service, authToken string, logger zerolog.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		engine:       engine,
		stores:       stores,
		roster:       roster,
		authToken:    authToken,
		logger:       logger.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /positions/wallet/{wallet}", s.handleWalletPositions)
	mux.HandleFunc("GET /positions/wallet/{wallet}/token/{token}", s.handleWalletTokenPosition)
	mux.HandleFunc("GET /positions/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("POST /positions/update-unrealized-pnl", s.handleUpdateUnrealized)
	mux.HandleFunc("GET /wallets", s.handleListWallets)
	mux.HandleFunc("POST /wallets", s.handleAddWallet)
	mux.HandleFunc("DELETE /wallets/{address}", s.handleRemoveWallet)
	mux.HandleFunc("GET /swaps/wallet/{wallet}", s.handleWalletSwaps)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener closes. It returns nil on a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid auth token")
		return
	}

	var payload ingest.Payload
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := decoder.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	result := s.orchestrator.ProcessBatch(r.Context(), payload)

	status := "success"
	if result.Errors > 0 {
		status = "partial"
		if result.Successful == 0 {
			status = "error"
		}
	}
	writeJSON(w, http.StatusOK, webhookResponse{
		Status:      status,
		BatchResult: result,
	})
}

func (s *Server) authorized(r *http.Request) bool {
	token := r.Header.Get("X-Auth-Token")
	if token == "" || s.authToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

type webhookResponse struct {
	Status string `json:"status"`
	ingest.BatchResult
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
