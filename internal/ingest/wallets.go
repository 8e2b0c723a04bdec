package ingest

import (
	"context"

	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/utils"
	"github.com/rs/zerolog"
)

// UnknownWallet is the sentinel recorded when no candidate address is
// tracked.
const UnknownWallet = "unknown"

// TrackedSet is the hot membership set for tracked wallets (redis-backed
// in production). A failing set is not fatal; the resolver falls back to
// the wallet store.
type TrackedSet interface {
	Contains(ctx context.Context, address string) (bool, error)
	Add(ctx context.Context, addresses ...string) error
}

// WalletResolver picks the tracked wallet among an event's candidate
// addresses.
type WalletResolver struct {
	wallets store.WalletStore
	tracked TrackedSet
	logger  zerolog.Logger
}

// NewWalletResolver creates a wallet resolver. tracked may be nil, in
// which case every lookup goes to the store.
func NewWalletResolver(wallets store.WalletStore, tracked TrackedSet, logger zerolog.Logger) *WalletResolver {
	return &WalletResolver{
		wallets: wallets,
		tracked: tracked,
		logger:  logger.With().Str("component", "wallet_resolver").Logger(),
	}
}

// Resolve returns the first candidate present in the tracked-wallets set,
// or UnknownWallet. Ties between tracked candidates are broken by input
// order.
func (r *WalletResolver) Resolve(ctx context.Context, candidateAddrs []string) string {
	seen := make(map[string]struct{}, len(candidateAddrs))
	for _, candidate := range candidateAddrs {
		addr := utils.NormalizeAddress(candidate)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		if r.isTracked(ctx, addr) {
			return addr
		}
	}
	return UnknownWallet
}

func (r *WalletResolver) isTracked(ctx context.Context, addr string) bool {
	if r.tracked != nil {
		hit, err := r.tracked.Contains(ctx, addr)
		if err == nil {
			if hit {
				return true
			}
			// A cache miss may just mean the set is cold; fall through to
			// the store and backfill on a hit.
		} else {
			r.logger.Warn().Err(err).Str("wallet", addr).Msg("Tracked-wallet cache unavailable")
		}
	}

	exists, err := r.wallets.Exists(ctx, addr)
	if err != nil {
		r.logger.Error().Err(err).Str("wallet", addr).Msg("Failed to check tracked wallet")
		return false
	}
	if exists && r.tracked != nil {
		if err := r.tracked.Add(ctx, addr); err != nil {
			r.logger.Warn().Err(err).Str("wallet", addr).Msg("Failed to backfill tracked-wallet cache")
		}
	}
	return exists
}
