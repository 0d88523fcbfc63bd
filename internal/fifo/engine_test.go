package fifo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/smartwallet/tracker/pkg/models"
)

func price(p float64) *float64 { return &p }

func mkTransfer(action models.ActionType, qty float64, px *float64, ts time.Time, block int64, hash string) models.Transfer {
	dir := models.DirectionIn
	if action == models.ActionSell || action == models.ActionTransferOut {
		dir = models.DirectionOut
	}
	return models.Transfer{
		Wallet:          "W",
		TransactionHash: hash,
		FungibleID:      "T",
		Symbol:          "TOK",
		Direction:       dir,
		ActionType:      action,
		Quantity:        qty,
		PricePerToken:   px,
		Timestamp:       ts,
		BlockNumber:     block,
	}
}

// S1 (FIFO basic): buy 100@$1, buy 100@$2, sell 150@$5.
func TestEngine_S1_FIFOBasic(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []models.Transfer{
		mkTransfer(models.ActionBuy, 100, price(1), base, 1, "a"),
		mkTransfer(models.ActionBuy, 100, price(2), base.Add(time.Hour), 2, "b"),
		mkTransfer(models.ActionSell, 150, price(5), base.Add(2*time.Hour), 3, "c"),
	}

	eng := New(nil)
	priceNow := func() *float64 { return price(5) }
	result := eng.Compute("W", "T", "TOK", transfers, priceNow)

	assert.InDelta(t, 300.0, result.TotalInvestedUSD, 1e-6)
	assert.InDelta(t, 550.0, result.TotalRealizedUSD, 1e-6)
	assert.InDelta(t, 50.0, result.RemainingQuantity, 1e-6)
	assert.InDelta(t, 100.0, result.RemainingCostBasis, 1e-6)
	expectedROI := (550.0 + 50.0*5.0 - 300.0) / 300.0 * 100
	assert.InDelta(t, expectedROI, result.ROIPercentage, 1e-6)
	assert.Equal(t, models.StatusGagnant, result.Status)
}

// S2 (airdrop): airdrop 1000 qty 0, sell 1000 @ $0.10.
func TestEngine_S2_Airdrop(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []models.Transfer{
		mkTransfer(models.ActionAirdrop, 1000, nil, base, 1, "a"),
		mkTransfer(models.ActionSell, 1000, price(0.10), base.Add(time.Hour), 2, "b"),
	}

	eng := New(nil)
	result := eng.Compute("W", "T", "TOK", transfers, nil)

	assert.InDelta(t, 0.0, result.TotalInvestedUSD, 1e-6)
	assert.InDelta(t, 100.0, result.GainsAirdropsUSD, 1e-6)
	assert.Equal(t, models.StatusAirdropGagnant, result.Status)
}

// Open Question (c): a sell exceeding available lots is treated as a sale from
// an implicit zero-cost airdrop lot, never a negative lot.
func TestEngine_OversoldBecomesAirdropCarveOut(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []models.Transfer{
		mkTransfer(models.ActionBuy, 50, price(1), base, 1, "a"),
		mkTransfer(models.ActionSell, 80, price(2), base.Add(time.Hour), 2, "b"),
	}

	eng := New(nil)
	result := eng.Compute("W", "T", "TOK", transfers, nil)

	assert.InDelta(t, 0.0, result.RemainingQuantity, 1e-6)
	assert.GreaterOrEqual(t, result.RemainingQuantity, 0.0)
	// 50 units realized normally (proceeds 100, cost 50 -> 50 realized), 30
	// units treated as airdrop overflow (proceeds 60).
	assert.InDelta(t, 50.0, result.TotalRealizedUSD, 1e-6)
	assert.InDelta(t, 60.0, result.GainsAirdropsUSD, 1e-6)
}

// Invariant 1 (FIFO determinism): any permutation of same-timestamp events that
// respects the tie-break order yields identical analytics.
func TestEngine_DeterminismUnderPermutation(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []models.Transfer{
		mkTransfer(models.ActionBuy, 10, price(1), base, 5, "a"),
		mkTransfer(models.ActionBuy, 20, price(2), base, 5, "b"),
		mkTransfer(models.ActionSell, 15, price(3), base, 5, "c"),
	}

	eng := New(nil)
	baseline := eng.Compute("W", "T", "TOK", transfers, nil)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Transfer, len(transfers))
		copy(shuffled, transfers)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		result := eng.Compute("W", "T", "TOK", shuffled, nil)
		assert.Equal(t, baseline, result)
	}
}

// Invariant 2 (non-negative lots): after processing any stream, remaining
// quantity is never negative.
func TestEngine_NonNegativeLots(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []models.Transfer{
		mkTransfer(models.ActionBuy, 5, price(1), base, 1, "a"),
		mkTransfer(models.ActionSell, 50, price(1), base.Add(time.Minute), 2, "b"),
		mkTransfer(models.ActionBuy, 3, price(1), base.Add(2*time.Minute), 3, "c"),
		mkTransfer(models.ActionSell, 100, price(1), base.Add(3*time.Minute), 4, "d"),
	}
	eng := New(nil)
	result := eng.Compute("W", "T", "TOK", transfers, nil)
	assert.GreaterOrEqual(t, result.RemainingQuantity, 0.0)
}
