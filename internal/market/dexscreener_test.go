package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const searchBody = `{
	"schemaVersion": "1.0.0",
	"pairs": [
		{
			"chainId": "solana",
			"dexId": "raydium",
			"pairAddress": "pair1",
			"baseToken": {"address": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", "symbol": "BONK", "name": "Bonk"},
			"quoteToken": {"address": "So11111111111111111111111111111111111111112", "symbol": "SOL"},
			"priceUsd": "0.000021",
			"liquidity": {"usd": 150000, "base": 1000000, "quote": 1000},
			"volume": {"h24": 2000000, "h6": 500000, "h1": 80000}
		}
	]
}`

func TestSearchPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "BONK", r.URL.Query().Get("q"))
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())
	pairs, err := svc.SearchPairs(context.Background(), "BONK")
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.Equal(t, SolanaChain, pairs[0].ChainID)
	assert.Equal(t, "BONK", pairs[0].BaseToken.Symbol)
	assert.Equal(t, 150000.0, pairs[0].Liquidity.USD)
	assert.Equal(t, 1000.0, pairs[0].Liquidity.Quote)
	assert.Equal(t, 2000000.0, pairs[0].Volume.H24)
}

func TestSearchPairsRetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())
	pairs, err := svc.SearchPairs(context.Background(), "BONK")
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchPairsServerErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())
	_, err := svc.SearchPairs(context.Background(), "BONK")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-429 statuses must not be retried")
}

func TestNativePriceUSDPicksDeepestStablePair(t *testing.T) {
	body := `{
		"schemaVersion": "1.0.0",
		"pairs": [
			{
				"chainId": "solana",
				"baseToken": {"address": "So11111111111111111111111111111111111111112", "symbol": "SOL"},
				"quoteToken": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "USDC"},
				"priceUsd": "149.00",
				"liquidity": {"usd": 1000000}
			},
			{
				"chainId": "solana",
				"baseToken": {"address": "So11111111111111111111111111111111111111112", "symbol": "SOL"},
				"quoteToken": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "USDC"},
				"priceUsd": "150.50",
				"liquidity": {"usd": 5000000}
			},
			{
				"chainId": "solana",
				"baseToken": {"address": "So11111111111111111111111111111111111111112", "symbol": "SOL"},
				"quoteToken": {"address": "SomeRandomToken11111111111111111111111111", "symbol": "RND"},
				"priceUsd": "999.00",
				"liquidity": {"usd": 9000000}
			}
		]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())
	price, ok := svc.NativePriceUSD(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 150.50, price, "untrusted quotes must never set the native price")
}

func TestNativePriceUSDBestEffort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())
	price, ok := svc.NativePriceUSD(context.Background())
	assert.False(t, ok)
	assert.Zero(t, price)
}

func TestServiceClose(t *testing.T) {
	svc := NewService("http://localhost", zap.NewNop())
	svc.Close()
	svc.Close() // repeated Close is safe
}

func TestIsStableAndIsNative(t *testing.T) {
	assert.True(t, IsNative("So11111111111111111111111111111111111111112"))
	assert.True(t, IsStable("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
	assert.True(t, IsStable("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"))
	assert.False(t, IsStable("So11111111111111111111111111111111111111112"))
	assert.False(t, IsNative("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
}
