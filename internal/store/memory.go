package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montrack/montrack/internal/models"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Stores implementation used in tests. A single
// mutex stands in for the database's row locks, so the serialization
// guarantees match the SQL implementation; transactional rollback is not
// emulated.
type Memory struct {
	mu sync.Mutex

	pools     map[string]models.Pool
	processed map[string]models.ProcessedTransaction
	swaps     map[string]models.Swap
	nftTrades map[string]models.NFTTrade
	positions map[[2]string]models.Position
	wallets   map[string]models.Wallet
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		pools:     make(map[string]models.Pool),
		processed: make(map[string]models.ProcessedTransaction),
		swaps:     make(map[string]models.Swap),
		nftTrades: make(map[string]models.NFTTrade),
		positions: make(map[[2]string]models.Position),
		wallets:   make(map[string]models.Wallet),
	}
}

func (m *Memory) Pools() PoolStore         { return &memPools{m: m} }
func (m *Memory) Transactions() TxStore    { return &memTxs{m: m} }
func (m *Memory) Swaps() SwapStore         { return &memSwaps{m: m} }
func (m *Memory) NFTTrades() NFTStore      { return &memNFTs{m: m} }
func (m *Memory) Positions() PositionStore { return &memPositions{m: m} }
func (m *Memory) Wallets() WalletStore     { return &memWallets{m: m} }

func (m *Memory) WithinTransaction(_ context.Context, fn func(Stores) error) error {
	return fn(m)
}

func (m *Memory) RollbackFrom(_ context.Context, fromBlock int64) (ReorgRollback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := ReorgRollback{FromBlock: fromBlock}
	for hash, swap := range m.swaps {
		if swap.BlockNumber >= fromBlock {
			delete(m.swaps, hash)
			result.DeletedSwaps++
		}
	}
	for hash, trade := range m.nftTrades {
		if trade.BlockNumber >= fromBlock {
			delete(m.nftTrades, hash)
			result.DeletedNFTTrades++
		}
	}
	for hash, tx := range m.processed {
		if tx.BlockNumber >= fromBlock {
			delete(m.processed, hash)
			result.DeletedProcessed++
		}
	}
	return result, nil
}

type memPools struct{ m *Memory }

func (s *memPools) Get(_ context.Context, address string) (*models.Pool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	pool, ok := s.m.pools[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &pool, nil
}

func (s *memPools) Create(_ context.Context, pool *models.Pool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.pools[pool.Address]; ok {
		return nil
	}
	pool.LastUpdated = time.Now().UTC()
	s.m.pools[pool.Address] = *pool
	return nil
}

type memTxs struct{ m *Memory }

func (s *memTxs) IsProcessed(_ context.Context, txHash string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.processed[txHash]
	return ok, nil
}

func (s *memTxs) MarkProcessed(_ context.Context, txHash string, blockNumber int64, blockHash string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.processed[txHash]; ok {
		return false, nil
	}
	s.m.processed[txHash] = models.ProcessedTransaction{
		TxHash:      txHash,
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
		Timestamp:   time.Now().UTC(),
	}
	return true, nil
}

func (s *memTxs) AnyInBlock(_ context.Context, blockNumber int64) (*models.ProcessedTransaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, tx := range s.m.processed {
		if tx.BlockNumber == blockNumber {
			out := tx
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

type memSwaps struct{ m *Memory }

func (s *memSwaps) Create(_ context.Context, swap *models.Swap) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.swaps[swap.TxHash]; ok {
		return nil
	}
	if swap.ID == uuid.Nil {
		swap.ID = uuid.New()
	}
	if swap.Timestamp.IsZero() {
		swap.Timestamp = time.Now().UTC()
	}
	s.m.swaps[swap.TxHash] = *swap
	return nil
}

func (s *memSwaps) ListByWallet(_ context.Context, wallet string, limit int) ([]models.Swap, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var swaps []models.Swap
	for _, swap := range s.m.swaps {
		if swap.Wallet == wallet {
			swaps = append(swaps, swap)
		}
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i].Timestamp.After(swaps[j].Timestamp) })
	if limit > 0 && len(swaps) > limit {
		swaps = swaps[:limit]
	}
	return swaps, nil
}

type memNFTs struct{ m *Memory }

func (s *memNFTs) Create(_ context.Context, trade *models.NFTTrade) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.nftTrades[trade.TxHash]; ok {
		return nil
	}
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now().UTC()
	}
	s.m.nftTrades[trade.TxHash] = *trade
	return nil
}

type memPositions struct{ m *Memory }

func (s *memPositions) Get(_ context.Context, wallet, token string) (*models.Position, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	pos, ok := s.m.positions[[2]string{wallet, token}]
	if !ok {
		return nil, ErrNotFound
	}
	return &pos, nil
}

func (s *memPositions) Mutate(_ context.Context, wallet, token string, fn func(pos *models.Position, found bool) error) (*models.Position, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	key := [2]string{wallet, token}
	pos, found := s.m.positions[key]
	if !found {
		pos = models.Position{Wallet: wallet, Token: token, FirstTradeAt: time.Now().UTC()}
	}
	if err := fn(&pos, found); err != nil {
		return nil, err
	}
	pos.LastUpdated = time.Now().UTC()
	s.m.positions[key] = pos
	out := pos
	return &out, nil
}

func (s *memPositions) ListByWallet(_ context.Context, wallet string, activeOnly bool) ([]models.Position, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var positions []models.Position
	for _, pos := range s.m.positions {
		if pos.Wallet != wallet {
			continue
		}
		if activeOnly && !pos.Amount.IsPositive() {
			continue
		}
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Token < positions[j].Token })
	return positions, nil
}

func (s *memPositions) TopByPnl(_ context.Context, limit int) ([]models.Position, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	positions := make([]models.Position, 0, len(s.m.positions))
	for _, pos := range s.m.positions {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].TotalPnl().GreaterThan(positions[j].TotalPnl())
	})
	if limit > 0 && len(positions) > limit {
		positions = positions[:limit]
	}
	return positions, nil
}

func (s *memPositions) MarkUnrealized(_ context.Context, token string, currentPriceMon decimal.Decimal) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var updated int64
	for key, pos := range s.m.positions {
		if pos.Token != token || !pos.Amount.IsPositive() {
			continue
		}
		pos.UnrealizedPnlMon = currentPriceMon.Sub(pos.AverageEntryPriceMon).Mul(pos.Amount)
		pos.LastUpdated = time.Now().UTC()
		s.m.positions[key] = pos
		updated++
	}
	return updated, nil
}

type memWallets struct{ m *Memory }

func (s *memWallets) Upsert(_ context.Context, wallet *models.Wallet) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.wallets[wallet.Address]
	if ok {
		existing.TwitterName = wallet.TwitterName
		existing.TwitterPfp = wallet.TwitterPfp
		s.m.wallets[wallet.Address] = existing
		return nil
	}
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = time.Now().UTC()
	}
	s.m.wallets[wallet.Address] = *wallet
	return nil
}

func (s *memWallets) Delete(_ context.Context, address string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.wallets[address]; !ok {
		return false, nil
	}
	delete(s.m.wallets, address)
	return true, nil
}

func (s *memWallets) Exists(_ context.Context, address string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.wallets[address]
	return ok, nil
}

func (s *memWallets) List(_ context.Context) ([]models.Wallet, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	wallets := make([]models.Wallet, 0, len(s.m.wallets))
	for _, wallet := range s.m.wallets {
		wallets = append(wallets, wallet)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Address < wallets[j].Address })
	return wallets, nil
}
