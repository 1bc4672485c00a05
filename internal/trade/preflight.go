// internal/trade/preflight.go
package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/token"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/wallet"
)

const (
	// computeFeeCushion covers the base transaction fee plus priority
	// fee headroom, in lamports.
	computeFeeCushion uint64 = 100_000

	// tokenAccountSize is the byte size of an SPL token account.
	tokenAccountSize uint64 = 165

	// fallbackAccountRent is used when the rent query fails, matching
	// the current mainnet rent for a token account.
	fallbackAccountRent uint64 = 2_039_280
)

// SpendPlan is the preflight output: the raw amount to spend or sell,
// the lamports reserved for fees and rent, and whether the request was
// reduced to fit the available balance.
type SpendPlan struct {
	AmountRaw uint64 `json:"amount_raw"`
	BufferRaw uint64 `json:"buffer_raw"`
	Capped    bool   `json:"capped"`
}

// PlanSpend reduces a requested native-currency spend so that the
// balance still covers the fee/rent buffer. Pure; no I/O.
func PlanSpend(requested, available, buffer uint64) SpendPlan {
	plan := SpendPlan{AmountRaw: requested, BufferRaw: buffer}
	if available < requested+buffer {
		if available > buffer {
			plan.AmountRaw = available - buffer
		} else {
			plan.AmountRaw = 0
		}
		plan.Capped = true
	}
	return plan
}

// CapSell truncates a requested sell amount to the actually held
// balance. Over-requests never fail; they are silently capped. Pure.
func CapSell(requested, balance uint64) SpendPlan {
	plan := SpendPlan{AmountRaw: requested}
	if requested > balance {
		plan.AmountRaw = balance
		plan.Capped = true
	}
	return plan
}

// Preflight computes safely spendable amounts against live balances.
// Balances can shift between preview and execution, so capping instead
// of failing keeps the user's intent satisfiable without a round trip.
type Preflight struct {
	ledger   Ledger
	decimals *token.DecimalsCache
	logger   *zap.Logger
}

func NewPreflight(ledger Ledger, decimals *token.DecimalsCache, logger *zap.Logger) *Preflight {
	return &Preflight{
		ledger:   ledger,
		decimals: decimals,
		logger:   logger.Named("preflight"),
	}
}

// PlanBuy sizes a native-currency spend for w against the wallet's
// lamport balance and a fee/rent buffer. The buffer includes rent for
// the wrapped-native account and the destination token account when
// either does not exist yet.
func (p *Preflight) PlanBuy(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey, desiredSpendRaw uint64) (SpendPlan, error) {
	balance, err := p.ledger.GetBalance(ctx, w.PublicKey)
	if err != nil {
		return SpendPlan{}, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	buffer := computeFeeCushion
	rent := p.accountRent(ctx)

	wsolATA, err := w.ATA(chain.WSOLMint)
	if err == nil {
		if exists, err := p.ledger.AccountExists(ctx, wsolATA); err == nil && !exists {
			buffer += rent
		}
	}
	destATA, err := w.ATA(mint)
	if err == nil {
		if exists, err := p.ledger.AccountExists(ctx, destATA); err == nil && !exists {
			buffer += rent
		}
	}

	plan := PlanSpend(desiredSpendRaw, balance, buffer)
	if plan.Capped {
		p.logger.Info("Spend reduced to fit balance",
			zap.String("wallet", w.String()),
			zap.Uint64("requested", desiredSpendRaw),
			zap.Uint64("balance", balance),
			zap.Uint64("buffer", buffer),
			zap.Uint64("amount", plan.AmountRaw))
	}
	if plan.AmountRaw == 0 {
		return plan, newFailure(FailInsufficientBalance,
			fmt.Errorf("balance %d lamports cannot cover buffer %d", balance, buffer))
	}
	return plan, nil
}

// PlanSell caps a requested token sell to the on-chain balance.
func (p *Preflight) PlanSell(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey, requestedRaw uint64) (SpendPlan, error) {
	balance, err := p.tokenBalance(ctx, w, mint)
	if err != nil {
		return SpendPlan{}, err
	}

	plan := CapSell(requestedRaw, balance)
	if plan.Capped {
		p.logger.Info("Sell amount capped to balance",
			zap.String("wallet", w.String()),
			zap.Uint64("requested", requestedRaw),
			zap.Uint64("balance", balance))
	}
	if plan.AmountRaw == 0 {
		return plan, newFailure(FailInsufficientTokenBalance,
			errors.New("no token balance to sell"))
	}
	return plan, nil
}

// PlanSellAll sells the full on-chain balance directly.
func (p *Preflight) PlanSellAll(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey) (SpendPlan, error) {
	balance, err := p.tokenBalance(ctx, w, mint)
	if err != nil {
		return SpendPlan{}, err
	}
	if balance == 0 {
		return SpendPlan{}, newFailure(FailInsufficientTokenBalance,
			errors.New("no token balance to sell"))
	}
	return SpendPlan{AmountRaw: balance}, nil
}

func (p *Preflight) tokenBalance(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey) (uint64, error) {
	ata, err := w.ATA(mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive associated token account: %w", err)
	}
	balance, err := p.ledger.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}
	return balance, nil
}

func (p *Preflight) accountRent(ctx context.Context) uint64 {
	rent, err := p.ledger.GetMinimumBalanceForRentExemption(ctx, tokenAccountSize)
	if err != nil {
		p.logger.Debug("rent query failed, using fallback", zap.Error(err))
		return fallbackAccountRent
	}
	return rent
}
