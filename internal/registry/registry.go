package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/utils"
	"github.com/rs/zerolog"
)

// ErrResolution indicates the chain RPC exhausted its retries while
// resolving a pool's tokens. It aborts processing of the triggering event.
var ErrResolution = errors.New("pool token resolution failed")

// TokenResolver resolves a pool's constituent tokens on chain.
type TokenResolver interface {
	PoolTokens(ctx context.Context, poolAddress string) (string, string, error)
}

// Registry is the cache-first pool address -> (token0, token1) lookup.
type Registry struct {
	pools    store.PoolStore
	resolver TokenResolver
	logger   zerolog.Logger
}

// New creates a pool registry backed by the given store and resolver.
func New(pools store.PoolStore, resolver TokenResolver, logger zerolog.Logger) *Registry {
	return &Registry{
		pools:    pools,
		resolver: resolver,
		logger:   logger.With().Str("component", "pool_registry").Logger(),
	}
}

// Resolve returns the pool's (token0, token1), consulting the cache first
// and falling back to the chain RPC on a miss. The resolved pair is
// persisted idempotently; a racing duplicate insert is never an error.
func (r *Registry) Resolve(ctx context.Context, poolAddress string) (string, string, error) {
	poolAddress = utils.NormalizeAddress(poolAddress)
	if poolAddress == "" {
		return "", "", fmt.Errorf("%w: empty pool address", ErrResolution)
	}

	pool, err := r.pools.Get(ctx, poolAddress)
	if err == nil {
		return pool.Token0, pool.Token1, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		// Treat a cache read failure as a miss; the RPC path still works.
		r.logger.Warn().Err(err).Str("pool", poolAddress).Msg("Pool cache read failed, falling back to RPC")
	}

	token0, token1, err := r.resolver.PoolTokens(ctx, poolAddress)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrResolution, poolAddress, err)
	}

	if err := r.pools.Create(ctx, &models.Pool{
		Address: poolAddress,
		Token0:  token0,
		Token1:  token1,
	}); err != nil {
		// The tokens are known; a persist failure only costs a future miss.
		r.logger.Warn().Err(err).Str("pool", poolAddress).Msg("Failed to persist resolved pool")
	}

	return token0, token1, nil
}
