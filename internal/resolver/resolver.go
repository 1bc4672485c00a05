// internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/market"
)

const maxSamplePairs = 3

// Candidate represents one mint discovered while resolving a query.
// Created transiently per resolve call and never persisted.
type Candidate struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name,omitempty"`

	// ReportedLiquidity sums pool-reported USD liquidity across all
	// observed pairs, informational only.
	ReportedLiquidity float64 `json:"reported_liquidity"`
	// RealLiquidity counts only liquidity valued through trusted quote
	// assets: native currency at its live price, or 1:1 stablecoins.
	RealLiquidity   float64 `json:"real_liquidity"`
	Volume24h       float64 `json:"volume_24h"`
	EvidenceCount   int     `json:"evidence_count"`
	HasBaseRole     bool    `json:"-"`
	QuotePreference float64 `json:"-"`

	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`

	SamplePairs []market.Pair `json:"sample_pairs,omitempty"`
}

// PairSource is the market-data provider surface the resolver consumes.
type PairSource interface {
	SearchPairs(ctx context.Context, query string) ([]market.Pair, error)
	NativePriceUSD(ctx context.Context) (float64, bool)
}

// Resolver turns a free-text symbol or name query into a ranked list of
// trustworthy mint candidates.
type Resolver struct {
	source PairSource
	heur   Heuristics
	logger *zap.Logger
}

func New(source PairSource, heur Heuristics, logger *zap.Logger) *Resolver {
	return &Resolver{
		source: source,
		heur:   heur,
		logger: logger.Named("resolver"),
	}
}

// Resolve aggregates multi-pair market evidence for query into a ranked
// candidate list. An empty result is valid, not an error.
func (r *Resolver) Resolve(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	var pairs []market.Pair
	var nativePrice float64
	var havePrice bool

	// Price lookup is best-effort and independent of the pair search.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nativePrice, havePrice = r.source.NativePriceUSD(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		pairs, err = r.source.SearchPairs(gctx, query)
		if err != nil {
			return fmt.Errorf("pair search failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := r.aggregate(pairs, nativePrice, havePrice)

	queryUpper := strings.ToUpper(strings.TrimSpace(query))
	ranked := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		// The chain's own native currency and major stablecoins are not
		// resolvable targets, and a token that never priced anything as
		// base has no market of its own.
		if market.IsNative(cand.Address) || market.IsStable(cand.Address) {
			continue
		}
		if !cand.HasBaseRole {
			continue
		}
		cand.Score = r.heur.Score(cand, queryUpper)
		ranked = append(ranked, *cand)
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	annotateConfidence(ranked)

	r.logger.Debug("query resolved",
		zap.String("query", query),
		zap.Int("pairs_seen", len(pairs)),
		zap.Int("candidates", len(ranked)))

	return ranked, nil
}

// aggregate folds pair evidence into per-mint candidates keyed by the
// base token address. Pairs quoted in untrusted assets contribute only
// to reported liquidity, never to evidence.
func (r *Resolver) aggregate(pairs []market.Pair, nativePrice float64, havePrice bool) map[string]*Candidate {
	candidates := make(map[string]*Candidate)

	upsert := func(tok market.TokenInfo) *Candidate {
		cand, ok := candidates[tok.Address]
		if !ok {
			cand = &Candidate{
				Address: tok.Address,
				Symbol:  tok.Symbol,
				Name:    tok.Name,
			}
			candidates[tok.Address] = cand
		}
		if cand.Name == "" && tok.Name != "" {
			cand.Name = tok.Name
		}
		return cand
	}

	for i := range pairs {
		pair := &pairs[i]
		if pair.ChainID != market.SolanaChain {
			continue
		}

		base := upsert(pair.BaseToken)
		base.HasBaseRole = true
		base.ReportedLiquidity += pair.Liquidity.USD

		// Seen on the quote side only: remembered, but no evidence.
		upsert(pair.QuoteToken)

		quoteAddr := pair.QuoteToken.Address
		switch {
		case market.IsNative(quoteAddr):
			if havePrice {
				base.RealLiquidity += pair.Liquidity.Quote * nativePrice
			} else {
				// No live price: fall back to the pool's own USD figure.
				base.RealLiquidity += pair.Liquidity.USD
			}
			base.QuotePreference += 2
		case market.IsStable(quoteAddr):
			base.RealLiquidity += pair.Liquidity.Quote
			base.QuotePreference += 1
		default:
			// Liquidity denominated in an untrusted asset is not counted.
			continue
		}

		base.Volume24h += pair.Volume.H24
		base.EvidenceCount++
		if len(base.SamplePairs) < maxSamplePairs {
			base.SamplePairs = append(base.SamplePairs, *pair)
		}
	}

	return candidates
}

// annotateConfidence assigns each candidate its score's share of the
// returned set's total. Display only, never a gate.
func annotateConfidence(ranked []Candidate) {
	var total float64
	for i := range ranked {
		if ranked[i].Score > 0 {
			total += ranked[i].Score
		}
	}
	if total <= 0 {
		return
	}
	for i := range ranked {
		if ranked[i].Score > 0 {
			ranked[i].Confidence = ranked[i].Score / total * 100
		}
	}
}
