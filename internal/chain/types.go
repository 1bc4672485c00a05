// internal/chain/types.go
package chain

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// defaultMaxRetries используется, когда число попыток не задано конфигом.
const defaultMaxRetries = 3

// Well-known mints on the supported chain.
var (
	WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDCMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDTMint = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

// RPCMetrics хранит статистику запросов к одному RPC узлу.
type RPCMetrics struct {
	mu           sync.Mutex
	requests     uint64
	failures     uint64
	totalLatency time.Duration
}

func (m *RPCMetrics) record(success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if !success {
		m.failures++
	}
	m.totalLatency += latency
}

// RPCClient оборачивает один RPC узел с флагом доступности.
type RPCClient struct {
	Client *rpc.Client
	URL    string

	mu      sync.Mutex
	active  bool
	metrics *RPCMetrics
}

func (c *RPCClient) updateMetrics(success bool, latency time.Duration) {
	c.metrics.record(success, latency)
}

func (c *RPCClient) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *RPCClient) setActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

// TxStatus описывает итоговое состояние транзакции после подтверждения.
type TxStatus struct {
	Signature     string
	Status        string // pending | confirmed | finalized | failed
	Slot          uint64
	Confirmations uint64
	Error         string
	Timestamp     time.Time
}
