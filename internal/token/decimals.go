// internal/token/decimals.go
package token

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	// DefaultDecimals используется при любой ошибке получения decimals.
	// Совпадает с точностью нативной валюты (SOL).
	DefaultDecimals uint8 = 9

	decimalsTTL = 5 * time.Minute

	// Смещение поля decimals в данных SPL mint аккаунта.
	mintDecimalsOffset = 44
)

// AccountReader предоставляет доступ к данным аккаунтов ledger'а.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

type cachedDecimals struct {
	decimals  uint8
	updatedAt time.Time
}

// DecimalsCache получает и кэширует количество decimals для mint'ов.
// Никогда не возвращает ошибку: при неудаче используется DefaultDecimals.
type DecimalsCache struct {
	cache  sync.Map
	client AccountReader
	logger *zap.Logger
}

func NewDecimalsCache(client AccountReader, logger *zap.Logger) *DecimalsCache {
	return &DecimalsCache{
		client: client,
		logger: logger.Named("decimals"),
	}
}

// Decimals возвращает decimals для mint, best-effort.
func (c *DecimalsCache) Decimals(ctx context.Context, mint solana.PublicKey) uint8 {
	// Известные токены не требуют похода в сеть
	switch mint.String() {
	case "So11111111111111111111111111111111111111112": // wSOL
		return 9
	case "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": // USDC
		return 6
	case "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": // USDT
		return 6
	}

	key := mint.String()
	if value, ok := c.cache.Load(key); ok {
		entry := value.(*cachedDecimals)
		if time.Since(entry.updatedAt) < decimalsTTL {
			return entry.decimals
		}
		c.cache.Delete(key)
	}

	decimals, err := c.fromChain(ctx, mint)
	if err != nil {
		c.logger.Debug("failed to get mint decimals, using default",
			zap.String("mint", key),
			zap.Error(err))
		return DefaultDecimals
	}

	c.cache.Store(key, &cachedDecimals{decimals: decimals, updatedAt: time.Now()})
	return decimals
}

func (c *DecimalsCache) fromChain(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	acc, err := c.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account: %w", err)
	}
	if acc == nil || acc.Value == nil {
		return 0, fmt.Errorf("mint account not found: %s", mint.String())
	}

	data := acc.Value.Data.GetBinary()
	if len(data) <= mintDecimalsOffset {
		return 0, fmt.Errorf("invalid mint account data length: %d", len(data))
	}
	return data[mintDecimalsOffset], nil
}

// ToRaw конвертирует UI количество в raw base units, усекая к нулю.
func ToRaw(amountUi float64, decimals uint8) uint64 {
	if amountUi <= 0 {
		return 0
	}
	return uint64(math.Floor(amountUi * math.Pow10(int(decimals))))
}

// ToUi конвертирует raw количество в точную десятичную строку.
func ToUi(amountRaw uint64, decimals uint8) string {
	if decimals == 0 {
		return fmt.Sprintf("%d", amountRaw)
	}
	divisor := uint64(math.Pow10(int(decimals)))
	whole := amountRaw / divisor
	frac := amountRaw % divisor
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	fracStr := fmt.Sprintf("%0*d", decimals, frac)
	fracStr = strings.TrimRight(fracStr, "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

// ToUiFloat возвращает приблизительное float64 представление raw количества.
func ToUiFloat(amountRaw uint64, decimals uint8) float64 {
	return float64(amountRaw) / math.Pow10(int(decimals))
}
