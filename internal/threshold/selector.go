// Package threshold implements the Threshold Selector (C6): locates each
// wallet's optimal investment tier on a stability plateau and derives a quality
// score via a sigmoid, grounded on the multi-factor weighted-score-with-clamping
// pattern used for reactivation scoring elsewhere in the example pack.
package threshold

import (
	"math"
	"sort"

	"github.com/smartwallet/tracker/pkg/models"
)

// jTradeCountConstant is the trade-count nudge inside J_t. Resolved Open
// Question (b): fixed at 1 (not 10, unlike the Scorer's composite) so that J_t
// stays roughly bounded near [0,1] and the sigmoid constants below can target
// the documented "q ≈ 0.5 at the qualification floor" behavior — see
// SPEC_FULL.md §4.6 for the full derivation.
const jTradeCountConstant = 1.0

// sigmoidA, sigmoidB are the fixed constants of q = sigmoid(a*(meanJ - b)).
const (
	sigmoidA = 6.0
	sigmoidB = 0.5
)

// Gates are the reliable-set filters (§4.6 step 1, §6 threshold.*).
type Gates struct {
	MinTrades  int
	MinWinRate float64
	ROICap     float64
}

// Selector implements C6.
type Selector struct {
	gates Gates
}

func New(gates Gates) *Selector {
	return &Selector{gates: gates}
}

// Result is one wallet's threshold-selection outcome.
type Result struct {
	Status               models.ThresholdStatus
	OptimalThresholdTier float64
	QualityScore         float64
	OptimalTier          *models.TierPerformance
}

// reliableSet filters tiers per §4.6 step 1: n_trades >= MinTrades, win_rate >=
// MinWinRate, roi > 0.
func (s *Selector) reliableSet(tiers []models.TierPerformance) []models.TierPerformance {
	var r []models.TierPerformance
	for _, t := range tiers {
		if t.NTrades >= s.gates.MinTrades && t.WinRate >= s.gates.MinWinRate && t.ROIPercentage > 0 {
			r = append(r, t)
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].TierUSD < r[j].TierUSD })
	return r
}

// jScore computes J_t = 0.6*roi_norm + 0.4*win_rate_frac + 0.1*log(1+n_trades)*k.
func (s *Selector) jScore(t models.TierPerformance) float64 {
	roiNorm := math.Min(1, t.ROIPercentage/s.gates.ROICap)
	winRateFrac := t.WinRate / 100
	return 0.6*roiNorm + 0.4*winRateFrac + 0.1*math.Log(1+float64(t.NTrades))*jTradeCountConstant
}

// percentile60 computes P60 over a slice (nearest-rank by truncation, simple
// linear interpolation is unnecessary at this grid size).
func percentile60(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(0.6*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Select implements §4.6 steps 2-6 for one wallet's reliable tiers.
func (s *Selector) Select(tiers []models.TierPerformance) Result {
	reliable := s.reliableSet(tiers)
	if len(reliable) == 0 {
		return Result{Status: models.ThresholdNoReliableTier}
	}

	js := make([]float64, len(reliable))
	for i, t := range reliable {
		js[i] = s.jScore(t)
	}
	p60 := percentile60(js)
	maxJ := js[0]
	for _, j := range js {
		if j > maxJ {
			maxJ = j
		}
	}

	// Plateau: starting from the largest tier whose J >= P60 and within 10% of
	// max(J), walk down the grid while that stability holds. Optimal threshold
	// is the smallest such t (largest sustainable bet).
	inPlateau := func(j float64) bool {
		return j >= p60 && j >= maxJ*0.9
	}

	plateauStart := -1
	for i := len(reliable) - 1; i >= 0; i-- {
		if inPlateau(js[i]) {
			plateauStart = i
			break
		}
	}
	if plateauStart == -1 {
		return Result{Status: models.ThresholdNoReliableTier}
	}

	plateauEnd := plateauStart
	for i := plateauStart; i >= 0; i-- {
		if !inPlateau(js[i]) {
			break
		}
		plateauEnd = i
	}

	var sumJ float64
	for i := plateauEnd; i <= plateauStart; i++ {
		sumJ += js[i]
	}
	meanJ := sumJ / float64(plateauStart-plateauEnd+1)

	q := sigmoid(sigmoidA * (meanJ - sigmoidB))
	q = math.Min(1, math.Max(0, q))

	optimalTier := reliable[plateauEnd]

	status := statusFromQuality(q)
	if status == models.ThresholdNeutral {
		return Result{Status: models.ThresholdNeutral, QualityScore: q}
	}

	return Result{
		Status:               status,
		OptimalThresholdTier: optimalTier.TierUSD,
		QualityScore:         q,
		OptimalTier:          &optimalTier,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func statusFromQuality(q float64) models.ThresholdStatus {
	switch {
	case q < 0.1:
		return models.ThresholdNeutral
	case q < 0.3:
		return models.ThresholdPoor
	case q < 0.5:
		return models.ThresholdAverage
	case q < 0.7:
		return models.ThresholdGood
	case q < 0.9:
		return models.ThresholdExcellent
	default:
		return models.ThresholdExceptional
	}
}
