// internal/trade/interfaces.go
package trade

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/jupiter"
)

// Ledger is the RPC-node surface this package consumes. Satisfied by
// *chain.Client; narrowed here so tests can fake it.
type Ledger interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, ata solana.PublicKey) (uint64, error)
	AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error)
	GetRecentPrioritizationFees(ctx context.Context) ([]rpc.PriorizationFeeResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	SendRawTransaction(ctx context.Context, serializedTx []byte) (solana.Signature, error)
	AwaitConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) (*chain.TxStatus, error)
}

// QuoteProvider is the swap aggregator surface. Satisfied by
// *jupiter.Client.
type QuoteProvider interface {
	GetQuote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error)
	GetSwapTransaction(ctx context.Context, quote *jupiter.Quote, userPublicKey solana.PublicKey, priorityFee uint64) (*solana.Transaction, error)
}
