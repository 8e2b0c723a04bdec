package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	poolAddr = "0xcccccccccccccccccccccccccccccccccccccccc"
	token0   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	token1   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

type fakeResolver struct {
	token0 string
	token1 string
	err    error
	calls  int
}

func (f *fakeResolver) PoolTokens(_ context.Context, _ string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return f.token0, f.token1, nil
}

func TestResolveCacheHitSkipsRPC(t *testing.T) {
	pools := store.NewMemory().Pools()
	ctx := context.Background()
	require.NoError(t, pools.Create(ctx, &models.Pool{Address: poolAddr, Token0: token0, Token1: token1}))

	resolver := &fakeResolver{}
	registry := New(pools, resolver, zerolog.Nop())

	got0, got1, err := registry.Resolve(ctx, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, token0, got0)
	assert.Equal(t, token1, got1)
	assert.Equal(t, 0, resolver.calls)
}

func TestResolveMissHitsRPCAndPersists(t *testing.T) {
	pools := store.NewMemory().Pools()
	resolver := &fakeResolver{token0: token0, token1: token1}
	registry := New(pools, resolver, zerolog.Nop())
	ctx := context.Background()

	got0, got1, err := registry.Resolve(ctx, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, token0, got0)
	assert.Equal(t, token1, got1)
	assert.Equal(t, 1, resolver.calls)

	// The second lookup is served from the cache.
	_, _, err = registry.Resolve(ctx, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
}

func TestResolveNormalizesPoolAddress(t *testing.T) {
	pools := store.NewMemory().Pools()
	resolver := &fakeResolver{token0: token0, token1: token1}
	registry := New(pools, resolver, zerolog.Nop())
	ctx := context.Background()

	_, _, err := registry.Resolve(ctx, "  0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC  ")
	require.NoError(t, err)

	_, _, err = registry.Resolve(ctx, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
}

func TestResolveRPCFailure(t *testing.T) {
	registry := New(store.NewMemory().Pools(), &fakeResolver{err: errors.New("timeout")}, zerolog.Nop())

	_, _, err := registry.Resolve(context.Background(), poolAddr)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestResolveEmptyAddress(t *testing.T) {
	registry := New(store.NewMemory().Pools(), &fakeResolver{}, zerolog.Nop())

	_, _, err := registry.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrResolution)
}
