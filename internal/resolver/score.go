// internal/resolver/score.go
package resolver

import (
	"math"
	"strings"
)

// Heuristics holds the empirically tuned scoring thresholds. Defaults
// match production tuning; override via config for experimentation.
type Heuristics struct {
	// ScamLiquidityRatio: below this realLiquidity/reportedLiquidity
	// ratio the liquidity is almost entirely in an untrusted form.
	ScamLiquidityRatio float64
	ScamPenalty        float64

	DeadVolumeThreshold float64
	DeadPenalty         float64
	LowVolumeThreshold  float64
	LowPenalty          float64

	MomentumHighVolume float64
	MomentumHighBonus  float64
	MomentumMidVolume  float64
	MomentumMidBonus   float64
	MomentumLowVolume  float64
	MomentumLowBonus   float64

	ExactMatchBonus   float64
	PartialMatchBonus float64
	LiquidityWeight   float64
	VolumeWeight      float64
	EvidenceWeight    float64
	BaseRoleBonus     float64
	QuotePrefWeight   float64
}

func DefaultHeuristics() Heuristics {
	return Heuristics{
		ScamLiquidityRatio:  0.001,
		ScamPenalty:         500,
		DeadVolumeThreshold: 1_000,
		DeadPenalty:         200,
		LowVolumeThreshold:  10_000,
		LowPenalty:          100,
		MomentumHighVolume:  1_000_000,
		MomentumHighBonus:   200,
		MomentumMidVolume:   500_000,
		MomentumMidBonus:    100,
		MomentumLowVolume:   100_000,
		MomentumLowBonus:    50,
		ExactMatchBonus:     1000,
		PartialMatchBonus:   200,
		LiquidityWeight:     20,
		VolumeWeight:        15,
		EvidenceWeight:      5,
		BaseRoleBonus:       10,
		QuotePrefWeight:     5,
	}
}

// Score computes the weighted ranking score for a candidate against an
// upper-cased query.
func (h Heuristics) Score(c *Candidate, queryUpper string) float64 {
	var score float64

	symbolUpper := strings.ToUpper(c.Symbol)
	nameUpper := strings.ToUpper(c.Name)
	switch {
	case symbolUpper == queryUpper:
		score += h.ExactMatchBonus
	case queryUpper != "" && (strings.Contains(symbolUpper, queryUpper) || strings.Contains(nameUpper, queryUpper)):
		score += h.PartialMatchBonus
	}

	score += math.Log10(1+c.RealLiquidity) * h.LiquidityWeight
	score += math.Log10(1+c.Volume24h) * h.VolumeWeight

	switch {
	case c.Volume24h > h.MomentumHighVolume:
		score += h.MomentumHighBonus
	case c.Volume24h > h.MomentumMidVolume:
		score += h.MomentumMidBonus
	case c.Volume24h > h.MomentumLowVolume:
		score += h.MomentumLowBonus
	}

	score += float64(c.EvidenceCount) * h.EvidenceWeight
	if c.HasBaseRole {
		score += h.BaseRoleBonus
	}
	score += c.QuotePreference * h.QuotePrefWeight

	if c.ReportedLiquidity > 0 && c.RealLiquidity/c.ReportedLiquidity < h.ScamLiquidityRatio {
		score -= h.ScamPenalty
	}

	switch {
	case c.Volume24h < h.DeadVolumeThreshold:
		score -= h.DeadPenalty
	case c.Volume24h < h.LowVolumeThreshold:
		score -= h.LowPenalty
	}

	return score
}
