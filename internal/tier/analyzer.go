// Package tier implements the Tier Analyzer (C5): per-qualified-wallet
// performance across the fixed grid of investment thresholds (§4.5).
package tier

import "github.com/smartwallet/tracker/pkg/models"

// Analyzer computes one Tier Performance row per (wallet, tier) in the grid.
type Analyzer struct {
	grid []float64
}

func New(grid []float64) *Analyzer {
	return &Analyzer{grid: grid}
}

// Compute considers, for each tier t in the grid, only tokens whose
// TotalInvestedUSD >= t, and rolls up roi/win_rate/trade counts over that
// subset. Empty tiers are written with zeros and are not eligible for
// optimality (that gating happens in the Threshold Selector, C6).
func (a *Analyzer) Compute(wallet string, analytics []models.TokenAnalytics) []models.TierPerformance {
	rows := make([]models.TierPerformance, 0, len(a.grid))
	for _, t := range a.grid {
		var nTrades, nWinners, nLosers, nNeutral int
		var totalInvested, weightedROISum float64

		for _, row := range analytics {
			if row.TotalInvestedUSD < t {
				continue
			}
			nTrades++
			totalInvested += row.TotalInvestedUSD
			weightedROISum += row.ROIPercentage * row.TotalInvestedUSD
			switch row.Status {
			case models.StatusGagnant, models.StatusAirdropGagnant:
				nWinners++
			case models.StatusPerdant:
				nLosers++
			default:
				nNeutral++
			}
		}

		var roi, winRate float64
		if totalInvested > 0 {
			roi = weightedROISum / totalInvested
		}
		if nTrades > 0 {
			winRate = float64(nWinners) / float64(nTrades) * 100
		}

		rows = append(rows, models.TierPerformance{
			Wallet:        wallet,
			TierUSD:       t,
			ROIPercentage: roi,
			WinRate:       winRate,
			NTrades:       nTrades,
			NWinners:      nWinners,
			NLosers:       nLosers,
			NNeutral:      nNeutral,
			TotalInvested: totalInvested,
		})
	}
	return rows
}
