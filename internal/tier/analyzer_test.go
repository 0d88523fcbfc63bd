package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/smartwallet/tracker/pkg/models"
)

func TestAnalyzer_FiltersByTier(t *testing.T) {
	a := New([]float64{3000, 6000})
	analytics := []models.TokenAnalytics{
		{TotalInvestedUSD: 2000, ROIPercentage: 50, Status: models.StatusGagnant},
		{TotalInvestedUSD: 5000, ROIPercentage: 100, Status: models.StatusGagnant},
		{TotalInvestedUSD: 7000, ROIPercentage: -10, Status: models.StatusPerdant},
	}
	rows := a.Compute("W", analytics)
	assert.Len(t, rows, 2)

	tier3k := rows[0]
	assert.Equal(t, 3000.0, tier3k.TierUSD)
	assert.Equal(t, 2, tier3k.NTrades) // 5000 and 7000 qualify

	tier6k := rows[1]
	assert.Equal(t, 6000.0, tier6k.TierUSD)
	assert.Equal(t, 1, tier6k.NTrades) // only 7000 qualifies
	assert.Equal(t, 1, tier6k.NLosers)
}

func TestAnalyzer_EmptyTierIsZeroed(t *testing.T) {
	a := New([]float64{3000})
	rows := a.Compute("W", nil)
	assert.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].NTrades)
	assert.Equal(t, 0.0, rows[0].ROIPercentage)
}
