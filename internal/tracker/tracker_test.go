package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/smartwallet/tracker/internal/fifo"
	"github.com/smartwallet/tracker/internal/ingest"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

type fakeProvider struct {
	balances []provider.Balance
}

func (f *fakeProvider) ListBalances(ctx context.Context, wallet string) ([]provider.Balance, error) {
	return f.balances, nil
}
func (f *fakeProvider) ListTransfers(ctx context.Context, wallet, fungibleID, cursor string) (provider.TransferPage, error) {
	return provider.TransferPage{}, nil
}
func (f *fakeProvider) ListRecentSends(ctx context.Context, wallet string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}
func (f *fakeProvider) IsEOA(ctx context.Context, address string) (*bool, error) { return nil, nil }

type fakeStore struct {
	positions map[string]models.TokenPosition
	changes   []models.PositionChange
}

func newFakeStore() *fakeStore {
	return &fakeStore{positions: map[string]models.TokenPosition{}}
}

func (s *fakeStore) TokenPositions(ctx context.Context, wallet string) ([]models.TokenPosition, error) {
	var out []models.TokenPosition
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out, nil
}
func (s *fakeStore) UpsertTokenPosition(ctx context.Context, pos models.TokenPosition) error {
	s.positions[pos.FungibleID] = pos
	return nil
}
func (s *fakeStore) InsertPositionChange(ctx context.Context, change models.PositionChange) error {
	s.changes = append(s.changes, change)
	return nil
}
func (s *fakeStore) UpdateWalletPortfolioValue(ctx context.Context, wallet string, value float64, syncedAt time.Time) error {
	return nil
}
func (s *fakeStore) TransfersForToken(ctx context.Context, wallet, fungibleID string) ([]models.Transfer, error) {
	return nil, nil
}
func (s *fakeStore) UpsertAnalytics(ctx context.Context, a models.TokenAnalytics) error { return nil }

type noopIngestStore struct{}

func (noopIngestStore) ReplaceTransferHistory(ctx context.Context, wallet, fungibleID string, transfers []models.Transfer) error {
	return nil
}
func (noopIngestStore) UpsertTransfersIgnore(ctx context.Context, transfers []models.Transfer) (int, error) {
	return 0, nil
}

// S6 (live diff): before amount=100 in_portfolio; provider now reports 150 ->
// ACCUMULATION, old=100, new=150; token position updated.
func TestTracker_S6_LiveDiff(t *testing.T) {
	store := newFakeStore()
	store.positions["tok1"] = models.TokenPosition{
		Wallet: "W", FungibleID: "tok1", CurrentAmount: 100, CurrentUSDValue: 400, InPortfolio: true,
	}

	fp := &fakeProvider{balances: []provider.Balance{
		{FungibleID: "tok1", Symbol: "TOK", Amount: 150, USDValue: 600},
	}}

	log := logger.NewLogger("error")
	ingestor := ingest.New(fp, noopIngestStore{}, 1, log)
	eng := fifo.New(log)
	tr := New(fp, ingestor, nil, eng, store, func(string, string, string) *float64 { return nil }, log)

	require.NoError(t, tr.Track(context.Background(), models.Wallet{Address: "W"}, Options{
		BalanceOnly:   true,
		MinUSD:        500,
		DeltaRelative: 0.05,
	}))

	require.Len(t, store.changes, 1)
	change := store.changes[0]
	assert.Equal(t, models.ChangeAccumulation, change.ChangeType)
	assert.InDelta(t, 100, change.OldAmount, 1e-9)
	assert.InDelta(t, 150, change.NewAmount, 1e-9)
	assert.Equal(t, float64(150), store.positions["tok1"].CurrentAmount)
}

func TestTracker_ExitWhenBalanceDisappears(t *testing.T) {
	store := newFakeStore()
	store.positions["tok1"] = models.TokenPosition{
		Wallet: "W", FungibleID: "tok1", CurrentAmount: 100, CurrentUSDValue: 400, InPortfolio: true,
	}
	fp := &fakeProvider{balances: nil}
	log := logger.NewLogger("error")
	ingestor := ingest.New(fp, noopIngestStore{}, 1, log)
	eng := fifo.New(log)
	tr := New(fp, ingestor, nil, eng, store, func(string, string, string) *float64 { return nil }, log)

	require.NoError(t, tr.Track(context.Background(), models.Wallet{Address: "W"}, Options{BalanceOnly: true, DeltaRelative: 0.05}))

	require.Len(t, store.changes, 1)
	assert.Equal(t, models.ChangeExit, store.changes[0].ChangeType)
	assert.False(t, store.positions["tok1"].InPortfolio)
}
