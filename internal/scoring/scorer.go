// Package scoring implements the Scorer (C4): a composite per-wallet score over
// all its Token Analytics rows, gated by the qualification thresholds, grounded
// on the point-accumulation-then-threshold-gate pattern of the wallet analyzer
// elsewhere in the example pack (IsSniperWallet/IsSmartMoneyWallet).
package scoring

import (
	"math"

	"github.com/smartwallet/tracker/pkg/models"
)

// tradeCountConstant (k) scales the trade-count term of the composite score.
// Resolved Open Question (b): fixed at 10 so the n_trades contribution saturates
// slowly and stays a tie-breaking nudge relative to the 0.6/0.3 weighted terms.
const tradeCountConstant = 10.0

// Gates are the qualification thresholds (§4.4, §6 scoring.*).
type Gates struct {
	MinScore       float64
	MinWeightedROI float64
	MinTrades      int
}

// Scorer computes the composite score and qualification for one wallet.
type Scorer struct {
	gates Gates
}

func New(gates Gates) *Scorer {
	return &Scorer{gates: gates}
}

// normalizeROI clamps weighted ROI (percentage points) to [0,100], resolving
// Open Question (b): monotone, and keeps the 50%-ROI qualification gate mapping
// to the midpoint of the normalized composite contribution.
func normalizeROI(weightedROI float64) float64 {
	return math.Min(100, math.Max(0, weightedROI))
}

// Compute derives weighted_roi, win_rate, and the composite score from a
// wallet's non-airdrop Token Analytics rows (§4.4). Airdrop-only positions
// (TotalInvestedUSD == 0) are excluded from weighted ROI, per spec.
func (s *Scorer) Compute(analytics []models.TokenAnalytics) models.QualifiedWallet {
	var investedSum, weightedROISum float64
	var winners, nTrades int

	for _, a := range analytics {
		if a.TotalInvestedUSD <= 0 {
			continue
		}
		investedSum += a.TotalInvestedUSD
		weightedROISum += a.ROIPercentage * a.TotalInvestedUSD
		nTrades++
		if a.ROIPercentage >= 80 {
			winners++
		}
	}

	var weightedROI, winRate float64
	if investedSum > 0 {
		weightedROI = weightedROISum / investedSum
	}
	if nTrades > 0 {
		winRate = float64(winners) / float64(nTrades)
	}

	score := 0.6*normalizeROI(weightedROI) + 0.3*winRate*100 + 0.1*math.Log(1+float64(nTrades))*tradeCountConstant

	return models.QualifiedWallet{
		Score:          score,
		WeightedROI:    weightedROI,
		WinRate:        winRate,
		TradeCount:     nTrades,
		Classification: classify(score),
	}
}

// Qualifies reports whether q clears all three qualification gates (§4.4): all
// required, AND-combined.
func (s *Scorer) Qualifies(q models.QualifiedWallet) bool {
	return q.Score >= s.gates.MinScore &&
		q.WeightedROI >= s.gates.MinWeightedROI &&
		q.TradeCount >= s.gates.MinTrades
}

func classify(score float64) models.Classification {
	switch {
	case score >= 80:
		return models.ClassificationElite
	case score >= 60:
		return models.ClassificationExcellent
	case score >= 40:
		return models.ClassificationBon
	case score >= 20:
		return models.ClassificationMoyen
	default:
		return models.ClassificationFaible
	}
}
