package trade

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/jupiter"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/token"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/wallet"
)

// fakeLedger satisfies Ledger and token.AccountReader with canned
// responses.
type fakeLedger struct {
	balance       uint64
	balanceErr    error
	tokenBalance  uint64
	tokenErr      error
	accountExists bool
	existsErr     error
	fees          []rpc.PriorizationFeeResult
	feesErr       error
	rent          uint64
	rentErr       error
	sendSig       solana.Signature
	sendErr       error
	sent          [][]byte
	confirmStatus *chain.TxStatus
	confirmErr    error
}

func (f *fakeLedger) GetBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLedger) GetTokenAccountBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return f.tokenBalance, f.tokenErr
}

func (f *fakeLedger) AccountExists(_ context.Context, _ solana.PublicKey) (bool, error) {
	return f.accountExists, f.existsErr
}

func (f *fakeLedger) GetRecentPrioritizationFees(_ context.Context) ([]rpc.PriorizationFeeResult, error) {
	return f.fees, f.feesErr
}

func (f *fakeLedger) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	return f.rent, f.rentErr
}

func (f *fakeLedger) SendRawTransaction(_ context.Context, serializedTx []byte) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, serializedTx)
	return f.sendSig, nil
}

func (f *fakeLedger) AwaitConfirmation(_ context.Context, _ solana.Signature, _ time.Duration) (*chain.TxStatus, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.confirmStatus != nil {
		return f.confirmStatus, nil
	}
	return &chain.TxStatus{Status: "confirmed"}, nil
}

func (f *fakeLedger) GetAccountInfo(_ context.Context, _ solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return nil, errors.New("account info not available")
}

// fakeQuoter satisfies QuoteProvider, recording every quote request.
type fakeQuoter struct {
	quoteFn   func(call int, req jupiter.QuoteRequest) (*jupiter.Quote, error)
	requests  []jupiter.QuoteRequest
	swapTx    *solana.Transaction
	swapErr   error
	swapCalls int
}

func (f *fakeQuoter) GetQuote(_ context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error) {
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if f.quoteFn != nil {
		return f.quoteFn(call, req)
	}
	return echoQuote(req, 0.1), nil
}

func (f *fakeQuoter) GetSwapTransaction(_ context.Context, _ *jupiter.Quote, _ solana.PublicKey, _ uint64) (*solana.Transaction, error) {
	f.swapCalls++
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return f.swapTx, nil
}

// echoQuote builds a quote priced for exactly the requested amount.
func echoQuote(req jupiter.QuoteRequest, impactPct float64) *jupiter.Quote {
	return &jupiter.Quote{
		InputMint:      req.InputMint,
		OutputMint:     req.OutputMint,
		InAmount:       strconv.FormatUint(req.Amount, 10),
		OutAmount:      strconv.FormatUint(req.Amount*2, 10),
		SwapMode:       string(req.Mode),
		SlippageBps:    req.SlippageBps,
		PriceImpactPct: impactPct,
	}
}

// newFakeSwapTx builds a minimal signable transaction with payer as the
// only signer.
func newFakeSwapTx(t *testing.T, payer solana.PublicKey) *solana.Transaction {
	t.Helper()
	memo := solana.NewInstruction(solana.MemoProgramID, []*solana.AccountMeta{}, []byte("swap"))
	tx, err := solana.NewTransaction(
		[]solana.Instruction{memo},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	return tx
}

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.New(key.String())
	require.NoError(t, err)
	return w
}

func newTestExecutor(t *testing.T, ledger *fakeLedger, quoter *fakeQuoter) (*Executor, *wallet.Wallet) {
	t.Helper()
	log := zap.NewNop()

	w := newTestWallet(t)
	wallets := wallet.NewRegistry(log)
	wallets.Add("main", w)

	if quoter.swapTx == nil {
		quoter.swapTx = newFakeSwapTx(t, w.PublicKey)
	}
	if ledger.sendSig == (solana.Signature{}) {
		ledger.sendSig[0] = 0x42
	}

	decimals := token.NewDecimalsCache(ledger, log)
	executor := NewExecutor(ExecutorConfig{
		Ledger:    ledger,
		Quoter:    quoter,
		Shopper:   NewShopper(quoter, log),
		Fees:      NewFeeEstimator(ledger, 1_000_000, log),
		Preflight: NewPreflight(ledger, decimals, log),
		Wallets:   wallets,
		Decimals:  decimals,
		Logger:    log,
	})
	return executor, w
}

func testMint(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().String()
}
