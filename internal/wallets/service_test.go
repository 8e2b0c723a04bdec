package wallets

import (
	"context"
	"errors"
	"testing"

	"github.com/montrack/montrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0x1111111111111111111111111111111111111111"

type fakeMirror struct {
	added   []string
	removed []string
	err     error
}

func (f *fakeMirror) AddItems(_ context.Context, items ...string) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, items...)
	return nil
}

func (f *fakeMirror) RemoveItems(_ context.Context, items ...string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, items...)
	return nil
}

type fakeSet struct {
	members map[string]bool
}

func newFakeSet() *fakeSet { return &fakeSet{members: make(map[string]bool)} }

func (f *fakeSet) Add(_ context.Context, addresses ...string) error {
	for _, a := range addresses {
		f.members[a] = true
	}
	return nil
}

func (f *fakeSet) Remove(_ context.Context, addresses ...string) error {
	for _, a := range addresses {
		delete(f.members, a)
	}
	return nil
}

func TestAddWallet(t *testing.T) {
	memory := store.NewMemory()
	mirror := &fakeMirror{}
	set := newFakeSet()
	service := NewService(memory.Wallets(), set, mirror, zerolog.Nop())
	ctx := context.Background()

	wallet, err := service.Add(ctx, "0X1111111111111111111111111111111111111111", "trader", "pfp.png")
	require.NoError(t, err)
	assert.Equal(t, testAddr, wallet.Address)
	assert.Equal(t, "trader", wallet.TwitterName)

	exists, err := memory.Wallets().Exists(ctx, testAddr)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, set.members[testAddr])
	assert.Equal(t, []string{testAddr}, mirror.added)
}

func TestAddWalletUpdatesProfile(t *testing.T) {
	memory := store.NewMemory()
	service := NewService(memory.Wallets(), nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Add(ctx, testAddr, "old", "")
	require.NoError(t, err)
	_, err = service.Add(ctx, testAddr, "new", "")
	require.NoError(t, err)

	rows, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].TwitterName)
}

func TestAddWalletMirrorFailureIsNotFatal(t *testing.T) {
	memory := store.NewMemory()
	mirror := &fakeMirror{err: errors.New("quicknode down")}
	service := NewService(memory.Wallets(), nil, mirror, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Add(ctx, testAddr, "", "")
	require.NoError(t, err)

	exists, err := memory.Wallets().Exists(ctx, testAddr)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddWalletInvalidAddress(t *testing.T) {
	service := NewService(store.NewMemory().Wallets(), nil, nil, zerolog.Nop())

	_, err := service.Add(context.Background(), "   ", "", "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestRemoveWallet(t *testing.T) {
	memory := store.NewMemory()
	mirror := &fakeMirror{}
	set := newFakeSet()
	service := NewService(memory.Wallets(), set, mirror, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Add(ctx, testAddr, "", "")
	require.NoError(t, err)

	require.NoError(t, service.Remove(ctx, testAddr))

	exists, err := memory.Wallets().Exists(ctx, testAddr)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, set.members[testAddr])
	assert.Equal(t, []string{testAddr}, mirror.removed)
}

func TestRemoveWalletNotTracked(t *testing.T) {
	service := NewService(store.NewMemory().Wallets(), nil, nil, zerolog.Nop())

	err := service.Remove(context.Background(), testAddr)
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestWarmAddresses(t *testing.T) {
	memory := store.NewMemory()
	service := NewService(memory.Wallets(), nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Add(ctx, testAddr, "", "")
	require.NoError(t, err)
	_, err = service.Add(ctx, "0x2222222222222222222222222222222222222222", "", "")
	require.NoError(t, err)

	addrs, err := service.WarmAddresses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{testAddr, "0x2222222222222222222222222222222222222222"}, addrs)
}
