// internal/market/price.go
package market

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

const wsolMint = "So11111111111111111111111111111111111111112"

var stableMints = map[string]bool{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
}

// IsStable сообщает, является ли mint признанным стейблкоином.
func IsStable(mint string) bool {
	return stableMints[mint]
}

// IsNative сообщает, является ли mint wrapped-нативной валютой.
func IsNative(mint string) bool {
	return mint == wsolMint
}

// NativePriceUSD возвращает текущую цену нативной валюты в USD по
// стейбл-котируемой паре с наибольшей ликвидностью. Best-effort: при
// любой неудаче возвращает 0 и false.
func (s *Service) NativePriceUSD(ctx context.Context) (float64, bool) {
	pairs, err := s.TokenPairs(ctx, wsolMint)
	if err != nil {
		s.logger.Debug("native price lookup failed", zap.Error(err))
		return 0, false
	}

	var bestPrice float64
	var bestLiquidity float64
	for i := range pairs {
		pair := &pairs[i]
		if pair.ChainID != SolanaChain {
			continue
		}
		if pair.BaseToken.Address != wsolMint || !IsStable(pair.QuoteToken.Address) {
			continue
		}
		price, err := strconv.ParseFloat(pair.PriceUsd, 64)
		if err != nil || price <= 0 {
			continue
		}
		if pair.Liquidity.USD > bestLiquidity {
			bestLiquidity = pair.Liquidity.USD
			bestPrice = price
		}
	}

	if bestPrice == 0 {
		s.logger.Debug("no stable-quoted native pair found")
		return 0, false
	}
	return bestPrice, true
}
