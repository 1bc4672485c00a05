// internal/trade/fees.go
package trade

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// DefaultFeePercentile is used when the caller does not specify one.
const DefaultFeePercentile = 90

// FeeEstimator derives an adaptive priority fee from the network's
// recent prioritization-fee history.
type FeeEstimator struct {
	ledger  Ledger
	ceiling uint64
	logger  *zap.Logger
}

func NewFeeEstimator(ledger Ledger, ceiling uint64, logger *zap.Logger) *FeeEstimator {
	return &FeeEstimator{
		ledger:  ledger,
		ceiling: ceiling,
		logger:  logger.Named("fees"),
	}
}

// EstimatePriorityFee samples recent fees and returns the value at the
// requested percentile, floored at base and capped at the ceiling. On
// any sampling failure it returns base unchanged; fee estimation never
// blocks execution.
func (e *FeeEstimator) EstimatePriorityFee(ctx context.Context, base uint64, percentile int) uint64 {
	if percentile <= 0 || percentile > 100 {
		percentile = DefaultFeePercentile
	}

	samples, err := e.ledger.GetRecentPrioritizationFees(ctx)
	if err != nil {
		e.logger.Debug("fee sampling failed, using base fee",
			zap.Uint64("base", base),
			zap.Error(err))
		return base
	}

	fees := make([]uint64, 0, len(samples))
	for _, sample := range samples {
		fees = append(fees, sample.PrioritizationFee)
	}
	if len(fees) == 0 {
		return base
	}

	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
	idx := (len(fees) - 1) * percentile / 100
	fee := fees[idx]

	if fee < base {
		fee = base
	}
	if e.ceiling > 0 && fee > e.ceiling {
		fee = e.ceiling
	}

	e.logger.Debug("priority fee estimated",
		zap.Int("samples", len(fees)),
		zap.Int("percentile", percentile),
		zap.Uint64("fee", fee))
	return fee
}
