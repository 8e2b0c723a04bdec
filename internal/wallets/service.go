// Package wallets manages the tracked-wallet roster: the database rows,
// the redis membership set and the remote key-value list mirror.
package wallets

import (
	"context"
	"errors"

	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/utils"
	"github.com/rs/zerolog"
)

// ErrInvalidAddress is returned for an empty or blank wallet address.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ErrNotTracked is returned when removing a wallet that is not tracked.
var ErrNotTracked = errors.New("wallet not tracked")

// Mirror is the remote list the roster is pushed to. Mirror failures are
// logged, never rolled back into the database.
type Mirror interface {
	AddItems(ctx context.Context, items ...string) error
	RemoveItems(ctx context.Context, items ...string) error
}

// MembershipSet is the hot membership cache (redis-backed in production).
type MembershipSet interface {
	Add(ctx context.Context, addresses ...string) error
	Remove(ctx context.Context, addresses ...string) error
}

// Service coordinates roster changes across the three backends. The
// database is the source of truth; cache and mirror follow best-effort.
type Service struct {
	wallets store.WalletStore
	tracked MembershipSet
	mirror  Mirror
	logger  zerolog.Logger
}

// NewService creates a roster service. tracked and mirror may be nil.
func NewService(wallets store.WalletStore, tracked MembershipSet, mirror Mirror, logger zerolog.Logger) *Service {
	return &Service{
		wallets: wallets,
		tracked: tracked,
		mirror:  mirror,
		logger:  logger.With().Str("component", "wallets").Logger(),
	}
}

// Add starts tracking a wallet. Re-adding an existing wallet updates its
// profile fields and succeeds.
func (s *Service) Add(ctx context.Context, address, twitterName, twitterPfp string) (*models.Wallet, error) {
	addr := utils.NormalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	wallet := &models.Wallet{
		Address:     addr,
		TwitterName: twitterName,
		TwitterPfp:  twitterPfp,
	}
	if err := s.wallets.Upsert(ctx, wallet); err != nil {
		return nil, err
	}

	if s.tracked != nil {
		if err := s.tracked.Add(ctx, addr); err != nil {
			s.logger.Warn().Err(err).Str("wallet", addr).Msg("Failed to add wallet to membership cache")
		}
	}
	if s.mirror != nil {
		if err := s.mirror.AddItems(ctx, addr); err != nil {
			s.logger.Error().Err(err).Str("wallet", addr).Msg("Failed to mirror wallet addition")
		}
	}

	s.logger.Info().Str("wallet", addr).Msg("Wallet tracked")
	return wallet, nil
}

// Remove stops tracking a wallet. Historical swaps and positions are kept.
func (s *Service) Remove(ctx context.Context, address string) error {
	addr := utils.NormalizeAddress(address)
	if addr == "" {
		return ErrInvalidAddress
	}

	deleted, err := s.wallets.Delete(ctx, addr)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotTracked
	}

	if s.tracked != nil {
		if err := s.tracked.Remove(ctx, addr); err != nil {
			s.logger.Warn().Err(err).Str("wallet", addr).Msg("Failed to remove wallet from membership cache")
		}
	}
	if s.mirror != nil {
		if err := s.mirror.RemoveItems(ctx, addr); err != nil {
			s.logger.Error().Err(err).Str("wallet", addr).Msg("Failed to mirror wallet removal")
		}
	}

	s.logger.Info().Str("wallet", addr).Msg("Wallet untracked")
	return nil
}

// List returns all tracked wallets.
func (s *Service) List(ctx context.Context) ([]models.Wallet, error) {
	return s.wallets.List(ctx)
}

// WarmAddresses returns every tracked address, used to preload the
// membership cache at startup.
func (s *Service) WarmAddresses(ctx context.Context) ([]string, error) {
	rows, err := s.wallets.List(ctx)
	if err != nil {
		return nil, err
	}
	addrs := make([]string, len(rows))
	for i, w := range rows {
		addrs[i] = w.Address
	}
	return addrs, nil
}
