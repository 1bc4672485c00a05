// internal/trade/executor.go
package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/jupiter"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/token"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/wallet"
)

// Request describes one trade to execute or preview.
type Request struct {
	WalletID  string
	TokenMint string
	// AmountUi is the native-currency spend for buys, or the token
	// amount for sells. Ignored by sell-all.
	AmountUi float64
	// ExactOutUi, when set on a buy, asks for exactly this many tokens
	// out instead of spending an exact input.
	ExactOutUi float64

	SlippagesBps    []int
	MaxImpactPct    *float64
	PriorityFeeBase uint64
	FeePercentile   int
}

// Executor drives a trade through its states:
// Preflighted -> Quoted -> Built -> Signed -> Submitted -> Confirmed.
// Each request is independent and stateless; two concurrent sells
// against the same wallet are not coordinated here - the on-chain
// program is the final arbiter.
type Executor struct {
	ledger         Ledger
	quoter         QuoteProvider
	shopper        *Shopper
	fees           *FeeEstimator
	preflight      *Preflight
	wallets        *wallet.Registry
	decimals       *token.DecimalsCache
	confirmTimeout time.Duration
	logger         *zap.Logger
}

type ExecutorConfig struct {
	Ledger         Ledger
	Quoter         QuoteProvider
	Shopper        *Shopper
	Fees           *FeeEstimator
	Preflight      *Preflight
	Wallets        *wallet.Registry
	Decimals       *token.DecimalsCache
	ConfirmTimeout time.Duration
	Logger         *zap.Logger
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	timeout := cfg.ConfirmTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Executor{
		ledger:         cfg.Ledger,
		quoter:         cfg.Quoter,
		shopper:        cfg.Shopper,
		fees:           cfg.Fees,
		preflight:      cfg.Preflight,
		wallets:        cfg.Wallets,
		decimals:       cfg.Decimals,
		confirmTimeout: timeout,
		logger:         cfg.Logger.Named("executor"),
	}
}

// Buy spends native currency to acquire req.TokenMint.
func (e *Executor) Buy(ctx context.Context, req Request) *ExecutionResult {
	return e.run(ctx, req, ActionBuy, false)
}

// Sell disposes of req.AmountUi tokens into the preferred counter
// assets, capped to the held balance.
func (e *Executor) Sell(ctx context.Context, req Request) *ExecutionResult {
	return e.run(ctx, req, ActionSell, false)
}

// SellAll sells the wallet's entire balance of req.TokenMint.
func (e *Executor) SellAll(ctx context.Context, req Request) *ExecutionResult {
	return e.run(ctx, req, ActionSellAll, false)
}

// Preview runs preflight and quote shopping without executing,
// reporting the same result shape without a signature.
func (e *Executor) Preview(ctx context.Context, req Request, action Action) *ExecutionResult {
	return e.run(ctx, req, action, true)
}

func (e *Executor) run(ctx context.Context, req Request, action Action, preview bool) *ExecutionResult {
	w, err := e.wallets.Load(req.WalletID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			err = newFailure(FailWalletNotFound, err)
		}
		return e.failed(req, action, err, FailWalletNotFound)
	}

	mint, err := solana.PublicKeyFromBase58(req.TokenMint)
	if err != nil {
		return e.failed(req, action, fmt.Errorf("invalid token mint: %w", err), FailBuild)
	}

	// Preflighted: amounts are fixed before any quote is requested -
	// a quote is priced for an exact amount and must not be adjusted
	// afterwards.
	plan, params, err := e.preflightAndParams(ctx, req, action, w, mint)
	if err != nil {
		// Balance determinations carry their own code; anything else here
		// is an infrastructure failure, not an insufficient balance.
		res := e.failed(req, action, err, FailPreflight)
		if action == ActionSell || action == ActionSellAll {
			res.AmountInUi = "0"
		}
		return res
	}

	// Quoted
	quote, err := e.shopper.FindRoute(ctx, params)
	if err != nil {
		return e.failed(req, action, err, FailNoRoute)
	}

	if action == ActionBuy && req.ExactOutUi > 0 {
		// Exact-output quotes reveal the input cost only now; reject
		// routes the preflighted balance cannot cover.
		if spendable := plan.AmountRaw; quote.InAmountRaw() > spendable {
			return e.failed(req, action, newFailure(FailInsufficientBalance,
				fmt.Errorf("route requires %d lamports, spendable %d", quote.InAmountRaw(), spendable)),
				FailInsufficientBalance)
		}
	}

	result := e.resultFromQuote(ctx, req, action, quote)
	if preview {
		result.Success = true
		result.Preview = true
		return result
	}

	priorityFee := e.fees.EstimatePriorityFee(ctx, req.PriorityFeeBase, req.FeePercentile)

	// Built
	tx, err := e.quoter.GetSwapTransaction(ctx, quote, w.PublicKey, priorityFee)
	if err != nil {
		return e.failed(req, action, newFailure(FailBuild, err), FailBuild)
	}

	// Signed: the key never leaves the wallet and is never logged.
	if err := w.SignTransaction(tx); err != nil {
		return e.failed(req, action, newFailure(FailBuild, err), FailBuild)
	}
	serialized, err := tx.MarshalBinary()
	if err != nil {
		return e.failed(req, action, newFailure(FailBuild, err), FailBuild)
	}

	// Submitted: transport-level retries only; a failed send is never
	// re-quoted or re-signed, which could double-spend against a
	// partially applied transaction.
	sig, err := e.ledger.SendRawTransaction(ctx, serialized)
	if err != nil {
		return e.failed(req, action, newFailure(FailSubmit, err), FailSubmit)
	}

	e.logger.Info("Transaction submitted",
		zap.String("wallet", req.WalletID),
		zap.String("action", string(action)),
		zap.String("token", req.TokenMint),
		zap.String("signature", sig.String()))

	// Confirmed | Failed
	status, err := e.ledger.AwaitConfirmation(ctx, sig, e.confirmTimeout)
	if err != nil {
		res := e.failed(req, action, newFailure(FailConfirmation, err), FailConfirmation)
		res.TxSignature = sig.String()
		return res
	}
	if status.Error != "" {
		res := e.failed(req, action, newFailure(FailConfirmation, errors.New(status.Error)), FailConfirmation)
		res.TxSignature = sig.String()
		return res
	}

	result.Success = true
	result.TxSignature = sig.String()
	result.ExplorerURL = explorerBaseURL + sig.String()

	e.logger.Info("Trade confirmed",
		zap.String("wallet", req.WalletID),
		zap.String("action", string(action)),
		zap.String("signature", sig.String()),
		zap.String("status", status.Status))
	return result
}

// preflightAndParams fixes the trade amount and builds the route search
// parameters for the given action.
func (e *Executor) preflightAndParams(ctx context.Context, req Request, action Action, w *wallet.Wallet, mint solana.PublicKey) (SpendPlan, ShopParams, error) {
	params := ShopParams{
		TokenMint:    req.TokenMint,
		SlippagesBps: req.SlippagesBps,
		MaxImpactPct: req.MaxImpactPct,
		Mode:         jupiter.ExactIn,
	}

	switch action {
	case ActionBuy:
		params.Direction = DirectionBuy
		desired := token.ToRaw(req.AmountUi, token.DefaultDecimals)
		if req.ExactOutUi > 0 {
			// Preflight against the full balance to learn the spendable
			// headroom; the exact-out amount is denominated in tokens.
			balance, err := e.ledger.GetBalance(ctx, w.PublicKey)
			if err != nil {
				return SpendPlan{}, params, fmt.Errorf("failed to get wallet balance: %w", err)
			}
			plan, err := e.preflight.PlanBuy(ctx, w, mint, balance)
			if err != nil {
				return plan, params, err
			}
			params.Mode = jupiter.ExactOut
			params.AmountRaw = token.ToRaw(req.ExactOutUi, e.decimals.Decimals(ctx, mint))
			return plan, params, nil
		}
		plan, err := e.preflight.PlanBuy(ctx, w, mint, desired)
		if err != nil {
			return plan, params, err
		}
		params.AmountRaw = plan.AmountRaw
		return plan, params, nil

	case ActionSell:
		params.Direction = DirectionSell
		requested := token.ToRaw(req.AmountUi, e.decimals.Decimals(ctx, mint))
		plan, err := e.preflight.PlanSell(ctx, w, mint, requested)
		if err != nil {
			return plan, params, err
		}
		params.AmountRaw = plan.AmountRaw
		return plan, params, nil

	case ActionSellAll:
		params.Direction = DirectionSell
		plan, err := e.preflight.PlanSellAll(ctx, w, mint)
		if err != nil {
			return plan, params, err
		}
		params.AmountRaw = plan.AmountRaw
		return plan, params, nil
	}

	return SpendPlan{}, params, fmt.Errorf("unsupported action: %s", action)
}

// resultFromQuote fills the pre-execution fields of the result from the
// accepted quote.
func (e *Executor) resultFromQuote(ctx context.Context, req Request, action Action, quote *jupiter.Quote) *ExecutionResult {
	inDecimals := e.mintDecimals(ctx, quote.InputMint)
	outDecimals := e.mintDecimals(ctx, quote.OutputMint)

	return &ExecutionResult{
		WalletID:    req.WalletID,
		Action:      action,
		TokenMint:   req.TokenMint,
		AmountInUi:  token.ToUi(quote.InAmountRaw(), inDecimals),
		AmountOutUi: token.ToUi(quote.OutAmountRaw(), outDecimals),
		PriceImpact: quote.PriceImpact(),
	}
}

func (e *Executor) mintDecimals(ctx context.Context, mintStr string) uint8 {
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return token.DefaultDecimals
	}
	return e.decimals.Decimals(ctx, mint)
}

func (e *Executor) failed(req Request, action Action, err error, fallback FailureCode) *ExecutionResult {
	e.logger.Warn("Trade failed",
		zap.String("wallet", req.WalletID),
		zap.String("action", string(action)),
		zap.String("token", req.TokenMint),
		zap.Error(err))
	return failedResult(req.WalletID, action, req.TokenMint, err, fallback)
}
