// internal/market/dexscreener.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	rateLimit   = 300 // requests per minute
	SolanaChain = "solana"
)

// SearchResponse представляет основную структуру ответа поиска пар.
type SearchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair содержит информацию о торговой паре.
type Pair struct {
	ChainID     string        `json:"chainId"`
	DexID       string        `json:"dexId"`
	PairAddress string        `json:"pairAddress"`
	BaseToken   TokenInfo     `json:"baseToken"`
	QuoteToken  TokenInfo     `json:"quoteToken"`
	PriceUsd    string        `json:"priceUsd"`
	PriceNative string        `json:"priceNative"`
	Liquidity   LiquidityInfo `json:"liquidity"`
	Volume      VolumeInfo    `json:"volume"`
	PriceChange ChangeInfo    `json:"priceChange"`
	PairCreated int64         `json:"pairCreatedAt"`
}

// TokenInfo содержит информацию о токене.
type TokenInfo struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// LiquidityInfo содержит информацию о ликвидности.
type LiquidityInfo struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// VolumeInfo содержит объемы торгов по окнам.
type VolumeInfo struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	H1  float64 `json:"h1"`
}

// ChangeInfo содержит изменение цены по окнам.
type ChangeInfo struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	H1  float64 `json:"h1"`
}

// Service представляет клиент market-data провайдера (DexScreener API).
type Service struct {
	baseURL     string
	client      *http.Client
	logger      *zap.Logger
	rateLimiter *time.Ticker
}

// NewService создает новый экземпляр сервиса.
func NewService(baseURL string, logger *zap.Logger) *Service {
	return &Service{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:      logger.Named("dexscreener"),
		rateLimiter: time.NewTicker(time.Minute / rateLimit),
	}
}

// Close останавливает ticker rate limiter'а.
func (s *Service) Close() {
	s.rateLimiter.Stop()
}

// SearchPairs ищет торговые пары по свободному текстовому запросу.
func (s *Service) SearchPairs(ctx context.Context, query string) ([]Pair, error) {
	reqURL := fmt.Sprintf("%s/latest/dex/search?q=%s", s.baseURL, url.QueryEscape(query))

	response, err := s.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to search pairs: %w", err)
	}
	return response.Pairs, nil
}

// TokenPairs возвращает все пары для заданного mint адреса.
func (s *Service) TokenPairs(ctx context.Context, mint string) ([]Pair, error) {
	reqURL := fmt.Sprintf("%s/latest/dex/tokens/%s", s.baseURL, mint)

	response, err := s.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get token pairs: %w", err)
	}
	return response.Pairs, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.code, e.body)
}

// doRequest выполняет HTTP запрос с учетом rate limit и повторами на 429.
func (s *Service) doRequest(ctx context.Context, reqURL string) (*SearchResponse, error) {
	operation := func() (*SearchResponse, error) {
		select {
		case <-ctx.Done():
			return nil, backoff.Permanent(ctx.Err())
		case <-s.rateLimiter.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			statusErr := &statusError{code: resp.StatusCode, body: string(body)}
			if resp.StatusCode == http.StatusTooManyRequests {
				// Временный лимит провайдера - повторяем с backoff
				return nil, statusErr
			}
			return nil, backoff.Permanent(statusErr)
		}

		var response SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return &response, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
}
