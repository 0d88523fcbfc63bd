package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

type fakeMarket struct{ mcap map[string]float64 }

func (m *fakeMarket) MarketCap(ctx context.Context, contract string) (float64, error) {
	return m.mcap[contract], nil
}
func (m *fakeMarket) Liquidity(ctx context.Context, contract string) (float64, error) { return 0, nil }

type fakeStablecoins struct{ set map[string]bool }

func (f *fakeStablecoins) IsStablecoin(symbol string) bool { return f.set[symbol] }

type fakeStore struct {
	signals map[string]models.ConsensusSignal
}

func newFakeStore() *fakeStore { return &fakeStore{signals: map[string]models.ConsensusSignal{}} }

func (s *fakeStore) UpsertConsensusSignal(ctx context.Context, sig models.ConsensusSignal) (bool, error) {
	key := sig.ContractAddress
	prior, existed := s.signals[key]
	changed := !existed || prior.WhaleCount != sig.WhaleCount || prior.IsActive != sig.IsActive
	s.signals[key] = sig
	return changed, nil
}

// S5 (consensus): within 48h, W1/W2/W3 buy X (mcap $5M, not stablecoin); W4
// buys Y (mcap $80M, stablecoin). Expect exactly one signal for X with
// whale_count=3; no signal for Y.
func TestDetector_S5_Consensus(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	market := &fakeMarket{mcap: map[string]float64{"X": 5_000_000, "Y": 80_000_000}}
	stables := &fakeStablecoins{set: map[string]bool{"USDC": true}}
	store := newFakeStore()
	log := logger.NewLogger("error")
	det := New(market, stables, store, nil, Gates{MinWhales: 2, WindowHours: 48, McapMin: 100_000, McapMax: 100_000_000}, log)

	buys := []RecentBuy{
		{Wallet: "W1", Symbol: "TOKX", ContractAddress: "X", USDValue: 1000, Timestamp: now.Add(-10 * time.Hour)},
		{Wallet: "W2", Symbol: "TOKX", ContractAddress: "X", USDValue: 1500, Timestamp: now.Add(-5 * time.Hour)},
		{Wallet: "W3", Symbol: "TOKX", ContractAddress: "X", USDValue: 2000, Timestamp: now.Add(-1 * time.Hour)},
		{Wallet: "W4", Symbol: "USDC", ContractAddress: "Y", USDValue: 5000, Timestamp: now.Add(-2 * time.Hour)},
	}

	signals, err := det.Detect(context.Background(), buys, now)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "X", signals[0].ContractAddress)
	assert.Equal(t, 3, signals[0].WhaleCount)
}

// Invariant 7 (consensus freshness): no emitted signal has last_buy > now;
// first_buy >= now - window_hours.
func TestDetector_FreshnessInvariant(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	market := &fakeMarket{mcap: map[string]float64{"X": 5_000_000}}
	stables := &fakeStablecoins{set: map[string]bool{}}
	store := newFakeStore()
	log := logger.NewLogger("error")
	det := New(market, stables, store, nil, Gates{MinWhales: 2, WindowHours: 48, McapMin: 100_000, McapMax: 100_000_000}, log)

	buys := []RecentBuy{
		{Wallet: "W1", Symbol: "TOKX", ContractAddress: "X", USDValue: 1000, Timestamp: now.Add(-100 * time.Hour)}, // outside window
		{Wallet: "W2", Symbol: "TOKX", ContractAddress: "X", USDValue: 1000, Timestamp: now.Add(1 * time.Hour)},   // future
		{Wallet: "W3", Symbol: "TOKX", ContractAddress: "X", USDValue: 1000, Timestamp: now.Add(-1 * time.Hour)},
	}

	signals, err := det.Detect(context.Background(), buys, now)
	require.NoError(t, err)
	require.Len(t, signals, 0) // only 1 in-window wallet, below MinWhales=2

	for _, s := range signals {
		assert.False(t, s.LastBuy.After(now))
		assert.False(t, s.FirstBuy.Before(now.Add(-48*time.Hour)))
	}
}

func TestDetector_FiltersByMarketCapAndStablecoin(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	market := &fakeMarket{mcap: map[string]float64{"TOO_SMALL": 50_000, "TOO_BIG": 200_000_000}}
	stables := &fakeStablecoins{set: map[string]bool{}}
	store := newFakeStore()
	log := logger.NewLogger("error")
	det := New(market, stables, store, nil, Gates{MinWhales: 2, WindowHours: 48, McapMin: 100_000, McapMax: 100_000_000}, log)

	buys := []RecentBuy{
		{Wallet: "W1", Symbol: "A", ContractAddress: "TOO_SMALL", Timestamp: now},
		{Wallet: "W2", Symbol: "A", ContractAddress: "TOO_SMALL", Timestamp: now},
		{Wallet: "W1", Symbol: "B", ContractAddress: "TOO_BIG", Timestamp: now},
		{Wallet: "W2", Symbol: "B", ContractAddress: "TOO_BIG", Timestamp: now},
	}

	signals, err := det.Detect(context.Background(), buys, now)
	require.NoError(t, err)
	assert.Len(t, signals, 0)
}
