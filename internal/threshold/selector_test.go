package threshold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/smartwallet/tracker/pkg/models"
)

func defaultGates() Gates {
	return Gates{MinTrades: 5, MinWinRate: 20, ROICap: 500}
}

func TestSelector_NoReliableTiersWhenAllGatesFail(t *testing.T) {
	sel := New(defaultGates())
	tiers := []models.TierPerformance{
		{TierUSD: 3000, NTrades: 1, WinRate: 0, ROIPercentage: -10},
	}
	result := sel.Select(tiers)
	assert.Equal(t, models.ThresholdNoReliableTier, result.Status)
}

// S3 (threshold plateau), shape only: synthetic ROI/win_rate/n_trades
// combinations make J rise then fall across the tiers (not the literal S3 J
// values, which TestSelector_S3_LiteralPlateau covers), then checks that the
// optimal tier lands strictly inside the grid.
func TestSelector_PlateauSelection(t *testing.T) {
	sel := New(defaultGates())

	mk := func(tierUSD float64, roi, winRate float64, nTrades int) models.TierPerformance {
		return models.TierPerformance{TierUSD: tierUSD, ROIPercentage: roi, WinRate: winRate, NTrades: nTrades}
	}

	tiers := []models.TierPerformance{
		mk(3000, 50, 25, 5),
		mk(4000, 80, 30, 6),
		mk(5000, 90, 32, 6),
		mk(6000, 95, 33, 7),
		mk(7000, 90, 32, 6),
		mk(8000, 40, 21, 5),
	}

	result := sel.Select(tiers)
	assert.NotEqual(t, models.ThresholdNoReliableTier, result.Status)
	// Optimal threshold is the smallest tier on the stable plateau, which sits
	// somewhere in the middle of the grid given the J values above rise then
	// fall — not the largest or the smallest tier outright.
	assert.Greater(t, result.OptimalThresholdTier, 3000.0)
	assert.Less(t, result.OptimalThresholdTier, 8000.0)
}

// TestSelector_S3_LiteralPlateau drives J to the exact documented S3 series
// {3k:0.4, 4k:0.55, 5k:0.58, 6k:0.60, 7k:0.58, 8k:0.32} via ROI/win_rate/n_trades
// combinations solved against jScore, then asserts the spec's own stated
// outcome: P60(J)=0.55, plateau={4k,5k,6k,7k}, optimal tier=4000.
func TestSelector_S3_LiteralPlateau(t *testing.T) {
	sel := New(defaultGates())

	// n_trades fixed at 5 for every tier so 0.1*log(1+5)*k is a constant
	// offset; winRate fixed at 25 so 0.4*win_rate_frac is a constant 0.1.
	// Solving J = 0.6*(roi/500) + 0.1 + 0.1*log(6) for roi per target J:
	mk := func(tierUSD, targetJ float64) models.TierPerformance {
		logTerm := 0.1 * math.Log(6)
		roi := (targetJ - 0.1 - logTerm) / 0.6 * 500
		return models.TierPerformance{TierUSD: tierUSD, ROIPercentage: roi, WinRate: 25, NTrades: 5}
	}

	tiers := []models.TierPerformance{
		mk(3000, 0.4),
		mk(4000, 0.55),
		mk(5000, 0.58),
		mk(6000, 0.60),
		mk(7000, 0.58),
		mk(8000, 0.32),
	}

	result := sel.Select(tiers)
	require.NotEqual(t, models.ThresholdNoReliableTier, result.Status)
	require.NotEqual(t, models.ThresholdNeutral, result.Status)
	assert.Equal(t, 4000.0, result.OptimalThresholdTier)
	require.NotNil(t, result.OptimalTier)
	assert.Equal(t, 4000.0, result.OptimalTier.TierUSD)
}

func TestSelector_QualityScoreClampedToUnitInterval(t *testing.T) {
	sel := New(defaultGates())
	tiers := []models.TierPerformance{
		{TierUSD: 3000, ROIPercentage: 500, WinRate: 100, NTrades: 50},
	}
	result := sel.Select(tiers)
	assert.GreaterOrEqual(t, result.QualityScore, 0.0)
	assert.LessOrEqual(t, result.QualityScore, 1.0)
}
