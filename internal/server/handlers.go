package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/utils"
	"github.com/montrack/montrack/internal/wallets"
	"github.com/shopspring/decimal"
)

const (
	defaultLeaderboardLimit = 100
	maxLeaderboardLimit     = 500
	defaultSwapsLimit       = 50
)

type positionView struct {
	Wallet               string          `json:"wallet"`
	Token                string          `json:"token"`
	Amount               decimal.Decimal `json:"amount"`
	AverageEntryPriceMon decimal.Decimal `json:"average_entry_price_mon"`
	TotalCostMon         decimal.Decimal `json:"total_cost_mon"`
	RealizedPnlMon       decimal.Decimal `json:"realized_pnl_mon"`
	UnrealizedPnlMon     decimal.Decimal `json:"unrealized_pnl_mon"`
	TotalPnlMon          decimal.Decimal `json:"total_pnl_mon"`
	TotalBought          decimal.Decimal `json:"total_bought"`
	TotalSold            decimal.Decimal `json:"total_sold"`
	TradeCount           int64           `json:"trade_count"`
	FirstTradeAt         time.Time       `json:"first_trade_at"`
	LastUpdated          time.Time       `json:"last_updated"`
}

func toPositionView(p *models.Position) positionView {
	return positionView{
		Wallet:               p.Wallet,
		Token:                p.Token,
		Amount:               p.Amount,
		AverageEntryPriceMon: p.AverageEntryPriceMon,
		TotalCostMon:         p.TotalCostMon,
		RealizedPnlMon:       p.RealizedPnlMon,
		UnrealizedPnlMon:     p.UnrealizedPnlMon,
		TotalPnlMon:          p.TotalPnl(),
		TotalBought:          p.TotalBought,
		TotalSold:            p.TotalSold,
		TradeCount:           p.TradeCount,
		FirstTradeAt:         p.FirstTradeAt,
		LastUpdated:          p.LastUpdated,
	}
}

func (s *Server) handleWalletPositions(w http.ResponseWriter, r *http.Request) {
	wallet := utils.NormalizeAddress(r.PathValue("wallet"))
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	rows, err := s.stores.Positions().ListByWallet(r.Context(), wallet, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Str("wallet", wallet).Msg("Failed to list positions")
		writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	views := make([]positionView, len(rows))
	for i := range rows {
		views[i] = toPositionView(&rows[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet":    wallet,
		"positions": views,
	})
}

func (s *Server) handleWalletTokenPosition(w http.ResponseWriter, r *http.Request) {
	wallet := utils.NormalizeAddress(r.PathValue("wallet"))
	token := utils.NormalizeAddress(r.PathValue("token"))
	if wallet == "" || token == "" {
		writeError(w, http.StatusBadRequest, "invalid wallet or token address")
		return
	}

	pos, err := s.stores.Positions().Get(r.Context(), wallet, token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "position not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("wallet", wallet).Str("token", token).Msg("Failed to load position")
		writeError(w, http.StatusInternalServerError, "failed to load position")
		return
	}
	writeJSON(w, http.StatusOK, toPositionView(pos))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.stores.Positions().TopByPnl(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	views := make([]positionView, len(rows))
	for i := range rows {
		views[i] = toPositionView(&rows[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"limit":     limit,
		"positions": views,
	})
}

type updateUnrealizedRequest struct {
	Token           string          `json:"token"`
	CurrentPriceMon decimal.Decimal `json:"current_price_mon"`
}

func (s *Server) handleUpdateUnrealized(w http.ResponseWriter, r *http.Request) {
	var req updateUnrealizedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	token := utils.NormalizeAddress(req.Token)
	if token == "" {
		writeError(w, http.StatusBadRequest, "invalid token address")
		return
	}
	if req.CurrentPriceMon.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	updated, err := s.engine.MarkUnrealized(r.Context(), token, req.CurrentPriceMon)
	if err != nil {
		s.logger.Error().Err(err).Str("token", token).Msg("Failed to mark unrealized PnL")
		writeError(w, http.StatusInternalServerError, "failed to update unrealized pnl")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":             token,
		"updated_positions": updated,
	})
}

type walletView struct {
	Address     string    `json:"address"`
	TwitterName string    `json:"twitter_name,omitempty"`
	TwitterPfp  string    `json:"twitter_pfp,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	rows, err := s.roster.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list wallets")
		writeError(w, http.StatusInternalServerError, "failed to list wallets")
		return
	}
	views := make([]walletView, len(rows))
	for i, row := range rows {
		views[i] = walletView{
			Address:     row.Address,
			TwitterName: row.TwitterName,
			TwitterPfp:  row.TwitterPfp,
			CreatedAt:   row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"wallets": views})
}

type addWalletRequest struct {
	Address     string `json:"address"`
	TwitterName string `json:"twitter_name"`
	TwitterPfp  string `json:"twitter_pfp"`
}

func (s *Server) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	var req addWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	wallet, err := s.roster.Add(r.Context(), req.Address, req.TwitterName, req.TwitterPfp)
	if errors.Is(err, wallets.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("wallet", req.Address).Msg("Failed to add wallet")
		writeError(w, http.StatusInternalServerError, "failed to add wallet")
		return
	}
	writeJSON(w, http.StatusCreated, walletView{
		Address:     wallet.Address,
		TwitterName: wallet.TwitterName,
		TwitterPfp:  wallet.TwitterPfp,
		CreatedAt:   wallet.CreatedAt,
	})
}

func (s *Server) handleRemoveWallet(w http.ResponseWriter, r *http.Request) {
	err := s.roster.Remove(r.Context(), r.PathValue("address"))
	switch {
	case errors.Is(err, wallets.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wallets.ErrNotTracked):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error().Err(err).Str("wallet", r.PathValue("address")).Msg("Failed to remove wallet")
		writeError(w, http.StatusInternalServerError, "failed to remove wallet")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

type swapView struct {
	TxHash      string          `json:"tx_hash"`
	BlockNumber int64           `json:"block_number"`
	Pool        string          `json:"pool"`
	TokenIn     string          `json:"token_in"`
	TokenOut    string          `json:"token_out"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	MonAmount   decimal.Decimal `json:"mon_amount"`
	IsSell      bool            `json:"is_sell"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (s *Server) handleWalletSwaps(w http.ResponseWriter, r *http.Request) {
	wallet := utils.NormalizeAddress(r.PathValue("wallet"))
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}
	limit := defaultSwapsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.stores.Swaps().ListByWallet(r.Context(), wallet, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("wallet", wallet).Msg("Failed to list swaps")
		writeError(w, http.StatusInternalServerError, "failed to list swaps")
		return
	}

	views := make([]swapView, len(rows))
	for i, row := range rows {
		views[i] = swapView{
			TxHash:      row.TxHash,
			BlockNumber: row.BlockNumber,
			Pool:        row.Pool,
			TokenIn:     row.TokenIn,
			TokenOut:    row.TokenOut,
			AmountIn:    row.AmountIn,
			AmountOut:   row.AmountOut,
			MonAmount:   row.MonAmount,
			IsSell:      row.IsSell,
			Timestamp:   row.Timestamp,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet": wallet,
		"swaps":  views,
	})
}
