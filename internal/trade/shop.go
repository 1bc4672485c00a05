// internal/trade/shop.go
package trade

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/jupiter"
)

// DefaultSlippageLadderBps is tried tightest-first when the caller does
// not supply a ladder.
var DefaultSlippageLadderBps = []int{100, 200, 300}

// Direction says which side of the pair the traded token sits on.
type Direction int

const (
	// DirectionBuy spends a counter asset to acquire the token.
	DirectionBuy Direction = iota
	// DirectionSell disposes of the token into a counter asset.
	DirectionSell
)

// ShopParams describes one route search.
type ShopParams struct {
	TokenMint    string
	CounterMints []string
	AmountRaw    uint64
	SlippagesBps []int
	// MaxImpactPct, when set, rejects any quote whose price impact
	// exceeds it. Unset means the first returned quote is accepted
	// unconditionally.
	MaxImpactPct *float64
	Mode         jupiter.SwapMode
	Direction    Direction
}

// DefaultCounterMints returns the preferred counter assets in order of
// desirability for the given direction.
func DefaultCounterMints(direction Direction) []string {
	if direction == DirectionSell {
		return []string{chain.WSOLMint.String(), chain.USDCMint.String()}
	}
	return []string{chain.WSOLMint.String()}
}

// Shopper iterates a matrix of counter-mints and slippage tolerances
// against the quote provider, accepting the first viable route.
type Shopper struct {
	quoter QuoteProvider
	logger *zap.Logger
}

func NewShopper(quoter QuoteProvider, logger *zap.Logger) *Shopper {
	return &Shopper{
		quoter: quoter,
		logger: logger.Named("shop"),
	}
}

// FindRoute runs the greedy search: counter-mints in order, and within
// each, slippages tightest-first. The first quote whose price impact
// passes the ceiling wins. The search is sequential on purpose - later
// combinations are strictly less desirable on a normal market, and the
// provider's rate limits punish parallel probing.
func (s *Shopper) FindRoute(ctx context.Context, p ShopParams) (*jupiter.Quote, error) {
	if p.AmountRaw == 0 {
		return nil, newFailure(FailNoRoute, errors.New("zero amount"))
	}
	counters := p.CounterMints
	if len(counters) == 0 {
		counters = DefaultCounterMints(p.Direction)
	}
	slippages := p.SlippagesBps
	if len(slippages) == 0 {
		slippages = DefaultSlippageLadderBps
	}
	mode := p.Mode
	if mode == "" {
		mode = jupiter.ExactIn
	}

	var lastErr error
	for _, counter := range counters {
		inputMint, outputMint := p.TokenMint, counter
		if p.Direction == DirectionBuy {
			inputMint, outputMint = counter, p.TokenMint
		}

		for _, slippageBps := range slippages {
			quote, err := s.quoter.GetQuote(ctx, jupiter.QuoteRequest{
				InputMint:   inputMint,
				OutputMint:  outputMint,
				Amount:      p.AmountRaw,
				SlippageBps: slippageBps,
				Mode:        mode,
			})
			if err != nil {
				lastErr = err
				s.logger.Debug("quote attempt failed",
					zap.String("counter", counter),
					zap.Int("slippage_bps", slippageBps),
					zap.Error(err))
				continue
			}

			impact := quote.PriceImpact()
			if p.MaxImpactPct != nil && impact > *p.MaxImpactPct {
				lastErr = fmt.Errorf("price impact %.4f%% exceeds ceiling %.4f%%", impact, *p.MaxImpactPct)
				s.logger.Debug("quote rejected on price impact",
					zap.String("counter", counter),
					zap.Int("slippage_bps", slippageBps),
					zap.Float64("impact_pct", impact))
				continue
			}

			s.logger.Debug("route accepted",
				zap.String("counter", counter),
				zap.Int("slippage_bps", slippageBps),
				zap.Float64("impact_pct", impact))
			return quote, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no quote combination available")
	}
	return nil, newFailure(FailNoRoute, lastErr)
}
