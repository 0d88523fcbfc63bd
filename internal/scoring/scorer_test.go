package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/smartwallet/tracker/pkg/models"
)

func defaultGates() Gates {
	return Gates{MinScore: 20, MinWeightedROI: 50, MinTrades: 3}
}

func TestScorer_QualifiesStrongWallet(t *testing.T) {
	s := New(defaultGates())
	analytics := []models.TokenAnalytics{
		{TotalInvestedUSD: 1000, ROIPercentage: 120},
		{TotalInvestedUSD: 2000, ROIPercentage: 90},
		{TotalInvestedUSD: 500, ROIPercentage: 60},
	}
	q := s.Compute(analytics)
	assert.True(t, s.Qualifies(q))
	assert.Equal(t, models.ClassificationExcellent, q.Classification)
}

func TestScorer_ExcludesAirdropOnlyPositions(t *testing.T) {
	s := New(defaultGates())
	analytics := []models.TokenAnalytics{
		{TotalInvestedUSD: 0, ROIPercentage: 0, Status: models.StatusAirdropGagnant},
	}
	q := s.Compute(analytics)
	assert.Equal(t, 0, q.TradeCount)
	assert.False(t, s.Qualifies(q))
}

func TestScorer_RejectsBelowGates(t *testing.T) {
	s := New(defaultGates())
	analytics := []models.TokenAnalytics{
		{TotalInvestedUSD: 100, ROIPercentage: 10},
		{TotalInvestedUSD: 100, ROIPercentage: -5},
	}
	q := s.Compute(analytics)
	assert.False(t, s.Qualifies(q))
}
