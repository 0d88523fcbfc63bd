// Package fifo implements the FIFO Engine (C3): a deterministic lot-accounting
// walk over a wallet's Transfer log for one token, grounded on the lot-queue
// consume-from-head pattern of a FIFO PnL computation found elsewhere in the
// example pack (a buy appends a lot, a sell drains lots head-first).
package fifo

import (
	"math"
	"sort"

	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// epsilon avoids divide-by-zero in ROI when total_invested is zero.
const epsilon = 1e-9

// lot is one open cost-basis lot in the FIFO queue.
type lot struct {
	quantity float64
	unitCost float64
	isAirdrop bool
}

// PriceNow resolves the current valuation price for remaining inventory. A nil
// price means "cannot value" (§4.1) — current_value falls back to cost basis.
type PriceNow func() *float64

// Engine recomputes Token Analytics for one (wallet, token) from its Transfer
// rows. It is stateless and safe to re-run any number of times (Design Note
// "Cyclic analytics / re-entrancy").
type Engine struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Compute walks transfers in the deterministic tie-break order (timestamp,
// block_number, transaction_hash ascending — Open Question (a), resolved) and
// produces the Token Analytics row for (wallet, fungibleID).
func (e *Engine) Compute(wallet, fungibleID, symbol string, transfers []models.Transfer, priceNow PriceNow) models.TokenAnalytics {
	ordered := make([]models.Transfer, len(transfers))
	copy(ordered, transfers)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	var lots []lot
	var totalInvested, totalRealized, gainsAirdrops float64
	var buyQtySum, buyCostSum, sellQtySum, sellProceedsSum float64
	var first, last models.Transfer
	haveFirst := false

	for _, t := range ordered {
		if !haveFirst {
			first = t
			haveFirst = true
		}
		last = t

		switch t.ActionType {
		case models.ActionBuy, models.ActionTransferIn:
			unitCost := t.EffectiveUnitCost()
			// A transfer_in with no known price (unitCost == 0) carries no cost
			// basis, so it must be treated like an airdrop lot: excluded from
			// total_invested and routed to gains_airdrops on sale, not realized P&L.
			isZeroCost := unitCost <= 0
			lots = append(lots, lot{quantity: t.Quantity, unitCost: unitCost, isAirdrop: isZeroCost})
			if !isZeroCost {
				totalInvested += t.Quantity * unitCost
				buyQtySum += t.Quantity
				buyCostSum += t.Quantity * unitCost
			}
		case models.ActionAirdrop:
			lots = append(lots, lot{quantity: t.Quantity, unitCost: 0, isAirdrop: true})

		case models.ActionSell, models.ActionTransferOut:
			remaining := t.Quantity
			salePrice := 0.0
			if t.PricePerToken != nil {
				salePrice = *t.PricePerToken
			}
			for remaining > epsilon && len(lots) > 0 {
				head := &lots[0]
				taken := math.Min(head.quantity, remaining)
				proceeds := taken * salePrice
				costBasis := taken * head.unitCost
				if head.isAirdrop {
					gainsAirdrops += proceeds - costBasis
				} else {
					totalRealized += proceeds - costBasis
					sellQtySum += taken
					sellProceedsSum += proceeds
				}
				head.quantity -= taken
				remaining -= taken
				if head.quantity <= epsilon {
					lots = lots[1:]
				}
			}
			if remaining > epsilon {
				// Open Question (c), resolved: oversold quantity is satisfied from an
				// implicit zero-cost airdrop lot rather than rejected or driven negative.
				proceeds := remaining * salePrice
				gainsAirdrops += proceeds
				if e.logger != nil {
					e.logger.Warning("sell exceeds available lots, treating overflow as zero-cost airdrop",
						map[string]interface{}{
							"wallet":      wallet,
							"fungible_id": fungibleID,
							"overflow":    remaining,
						})
				}
				remaining = 0
			}
		}
	}

	var remainingQuantity, remainingCostBasis float64
	for _, l := range lots {
		remainingQuantity += l.quantity
		if !l.isAirdrop {
			remainingCostBasis += l.quantity * l.unitCost
		}
	}

	var currentValue float64
	if priceNow != nil {
		if p := priceNow(); p != nil {
			currentValue = remainingQuantity * (*p)
		} else {
			currentValue = remainingCostBasis
		}
	} else {
		currentValue = remainingCostBasis
	}

	profitLoss := (totalRealized + gainsAirdrops + currentValue) - totalInvested
	roi := profitLoss / math.Max(totalInvested, epsilon) * 100

	status := models.StatusNeutre
	switch {
	case totalInvested <= epsilon && profitLoss > 0:
		status = models.StatusAirdropGagnant
	case roi >= 80:
		status = models.StatusGagnant
	case roi < 0:
		status = models.StatusPerdant
	}

	analytics := models.TokenAnalytics{
		Wallet:             wallet,
		FungibleID:         fungibleID,
		Symbol:             symbol,
		TotalInvestedUSD:   totalInvested,
		TotalRealizedUSD:   totalRealized,
		GainsAirdropsUSD:   gainsAirdrops,
		CurrentValueUSD:    currentValue,
		ProfitLossUSD:      profitLoss,
		ROIPercentage:      roi,
		RemainingQuantity:  remainingQuantity,
		RemainingCostBasis: remainingCostBasis,
		Status:             status,
	}
	if buyQtySum > epsilon {
		analytics.WeightedAvgBuyPrice = buyCostSum / buyQtySum
	}
	if sellQtySum > epsilon {
		analytics.WeightedAvgSellPrice = sellProceedsSum / sellQtySum
	}
	if haveFirst {
		analytics.FirstTransactionDate = first.Timestamp
		analytics.LastTransactionDate = last.Timestamp
	}
	return analytics
}
