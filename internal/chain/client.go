// internal/chain/client.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Client балансирует запросы между несколькими RPC узлами round-robin'ом,
// помечая отказавшие узлы неактивными.
type Client struct {
	rpcClients []*RPCClient
	currIndex  int
	maxRetries int
	mutex      sync.Mutex
	logger     *zap.Logger
}

// NewClient создает новый экземпляр клиента. maxRetries ограничивает число
// попыток на один запрос; значение <= 0 означает значение по умолчанию.
func NewClient(rpcURLs []string, maxRetries int, logger *zap.Logger) (*Client, error) {
	if len(rpcURLs) == 0 {
		return nil, errors.New("empty RPC URL list")
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var clients []*RPCClient
	for _, urlStr := range rpcURLs {
		if _, err := url.Parse(urlStr); err != nil {
			logger.Warn("Invalid RPC URL", zap.String("url", urlStr), zap.Error(err))
			continue
		}
		clients = append(clients, &RPCClient{
			Client:  rpc.New(urlStr),
			URL:     urlStr,
			active:  true,
			metrics: &RPCMetrics{},
		})
	}
	if len(clients) == 0 {
		return nil, errors.New("no valid RPC URLs provided")
	}

	return &Client{
		rpcClients: clients,
		maxRetries: maxRetries,
		logger:     logger.Named("chain"),
	}, nil
}

func (c *Client) getNextClient() *RPCClient {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	initialIndex := c.currIndex
	for {
		c.currIndex = (c.currIndex + 1) % len(c.rpcClients)
		if c.rpcClients[c.currIndex].isActive() {
			return c.rpcClients[c.currIndex]
		}
		if c.currIndex == initialIndex {
			return nil
		}
	}
}

// withRetry прогоняет запрос по активным узлам с ограниченным числом попыток.
func withRetry[T any](c *Client, ctx context.Context, op string, fn func(*rpc.Client) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		client := c.getNextClient()
		if client == nil {
			return zero, errors.New("no active RPC clients available")
		}

		start := time.Now()
		result, err := fn(client.Client)
		client.updateMetrics(err == nil, time.Since(start))

		if err != nil {
			// not-found - это ответ узла, а не его отказ
			if errors.Is(err, rpc.ErrNotFound) {
				return zero, err
			}
			lastErr = err
			client.setActive(false)
			continue
		}
		return result, nil
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", op, c.maxRetries, lastErr)
}

// GetBalance возвращает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := withRetry(c, ctx, "getBalance", func(rc *rpc.Client) (*rpc.GetBalanceResult, error) {
		return rc.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenAccountBalance возвращает баланс токен-аккаунта в raw единицах.
// Отсутствующий аккаунт трактуется как нулевой баланс.
func (c *Client) GetTokenAccountBalance(ctx context.Context, ata solana.PublicKey) (uint64, error) {
	result, err := withRetry(c, ctx, "getTokenAccountBalance", func(rc *rpc.Client) (*rpc.GetTokenAccountBalanceResult, error) {
		res, err := rc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentProcessed)
		if err != nil {
			// Повторный запрос с более надежным уровнем подтверждения
			res, err = rc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
		}
		if errors.Is(err, rpc.ErrNotFound) {
			// Аккаунт еще не создан - баланс нулевой
			return nil, nil
		}
		return res, err
	})
	if err != nil {
		return 0, err
	}
	if result == nil || result.Value == nil || result.Value.Amount == "" {
		return 0, nil
	}
	balance, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return balance, nil
}

// GetAccountInfo получает информацию об аккаунте.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return withRetry(c, ctx, "getAccountInfo", func(rc *rpc.Client) (*rpc.GetAccountInfoResult, error) {
		return rc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
	})
}

// AccountExists проверяет существование аккаунта on-chain.
func (c *Client) AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error) {
	result, err := c.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return result != nil && result.Value != nil, nil
}

// GetRecentPrioritizationFees возвращает недавние priority fee по слотам.
func (c *Client) GetRecentPrioritizationFees(ctx context.Context) ([]rpc.PriorizationFeeResult, error) {
	return withRetry(c, ctx, "getRecentPrioritizationFees", func(rc *rpc.Client) ([]rpc.PriorizationFeeResult, error) {
		return rc.GetRecentPrioritizationFees(ctx, nil)
	})
}

// GetMinimumBalanceForRentExemption возвращает рент для аккаунта заданного размера.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	return withRetry(c, ctx, "getMinimumBalanceForRentExemption", func(rc *rpc.Client) (uint64, error) {
		return rc.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentConfirmed)
	})
}

// GetRecentBlockhash возвращает последний blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := withRetry(c, ctx, "getLatestBlockhash", func(rc *rpc.Client) (*rpc.GetLatestBlockhashResult, error) {
		return rc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendRawTransaction отправляет сериализованную подписанную транзакцию.
func (c *Client) SendRawTransaction(ctx context.Context, serializedTx []byte) (solana.Signature, error) {
	return withRetry(c, ctx, "sendTransaction", func(rc *rpc.Client) (solana.Signature, error) {
		return rc.SendRawTransactionWithOpts(ctx, serializedTx, rpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: rpc.CommitmentFinalized,
		})
	})
}
