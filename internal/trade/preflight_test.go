package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/token"
)

func TestPlanSpend(t *testing.T) {
	tests := []struct {
		name      string
		requested uint64
		available uint64
		buffer    uint64
		expected  SpendPlan
	}{
		{
			name:      "fits with buffer",
			requested: 1_000, available: 2_000, buffer: 100,
			expected: SpendPlan{AmountRaw: 1_000, BufferRaw: 100},
		},
		{
			name:      "reduced to available minus buffer",
			requested: 2_000, available: 1_500, buffer: 100,
			expected: SpendPlan{AmountRaw: 1_400, BufferRaw: 100, Capped: true},
		},
		{
			name:      "exact boundary is not capped",
			requested: 1_900, available: 2_000, buffer: 100,
			expected: SpendPlan{AmountRaw: 1_900, BufferRaw: 100},
		},
		{
			name:      "balance below buffer yields zero",
			requested: 1_000, available: 50, buffer: 100,
			expected: SpendPlan{AmountRaw: 0, BufferRaw: 100, Capped: true},
		},
		{
			name:      "balance equal to buffer yields zero",
			requested: 1_000, available: 100, buffer: 100,
			expected: SpendPlan{AmountRaw: 0, BufferRaw: 100, Capped: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanSpend(tt.requested, tt.available, tt.buffer)
			assert.Equal(t, tt.expected, plan)
			// the planned spend never eats into the buffer
			if tt.available > tt.buffer {
				assert.LessOrEqual(t, plan.AmountRaw+tt.buffer, tt.available)
			}
		})
	}
}

func TestCapSell(t *testing.T) {
	assert.Equal(t, SpendPlan{AmountRaw: 500}, CapSell(500, 500))
	assert.Equal(t, SpendPlan{AmountRaw: 300}, CapSell(300, 500))
	assert.Equal(t, SpendPlan{AmountRaw: 500, Capped: true}, CapSell(900, 500))
	assert.Equal(t, SpendPlan{AmountRaw: 0, Capped: true}, CapSell(900, 0))
}

func TestPlanBuyAddsRentForMissingAccounts(t *testing.T) {
	ledger := &fakeLedger{
		balance:       10_000_000,
		accountExists: false, // neither the wSOL nor the destination ATA exists
		rent:          2_000_000,
	}
	pf := NewPreflight(ledger, token.NewDecimalsCache(ledger, zap.NewNop()), zap.NewNop())
	w := newTestWallet(t)

	plan, err := pf.PlanBuy(context.Background(), w, chain.USDCMint, 20_000_000)
	require.NoError(t, err)

	// buffer = fee cushion + rent for the two missing accounts
	expected := uint64(10_000_000) - (computeFeeCushion + 2*2_000_000)
	assert.True(t, plan.Capped)
	assert.Equal(t, expected, plan.AmountRaw)
}

func TestPlanBuyInsufficientBalance(t *testing.T) {
	ledger := &fakeLedger{
		balance:       50_000, // below the buffer
		accountExists: true,
		rent:          2_000_000,
	}
	pf := NewPreflight(ledger, token.NewDecimalsCache(ledger, zap.NewNop()), zap.NewNop())
	w := newTestWallet(t)

	plan, err := pf.PlanBuy(context.Background(), w, chain.USDCMint, 1_000_000)
	require.Error(t, err)
	assert.Equal(t, uint64(0), plan.AmountRaw)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailInsufficientBalance, failure.Code)
}

func TestPlanSellCapsToBalance(t *testing.T) {
	ledger := &fakeLedger{tokenBalance: 200, accountExists: true}
	pf := NewPreflight(ledger, token.NewDecimalsCache(ledger, zap.NewNop()), zap.NewNop())
	w := newTestWallet(t)

	plan, err := pf.PlanSell(context.Background(), w, chain.USDCMint, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), plan.AmountRaw)
	assert.True(t, plan.Capped)
}

func TestPlanSellZeroBalance(t *testing.T) {
	ledger := &fakeLedger{tokenBalance: 0}
	pf := NewPreflight(ledger, token.NewDecimalsCache(ledger, zap.NewNop()), zap.NewNop())
	w := newTestWallet(t)

	_, err := pf.PlanSell(context.Background(), w, chain.USDCMint, 500)
	require.Error(t, err)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailInsufficientTokenBalance, failure.Code)
}

func TestPlanSellAll(t *testing.T) {
	ledger := &fakeLedger{tokenBalance: 12_345}
	pf := NewPreflight(ledger, token.NewDecimalsCache(ledger, zap.NewNop()), zap.NewNop())
	w := newTestWallet(t)

	plan, err := pf.PlanSellAll(context.Background(), w, chain.USDCMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345), plan.AmountRaw)

	ledger.tokenBalance = 0
	_, err = pf.PlanSellAll(context.Background(), w, chain.USDCMint)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailInsufficientTokenBalance, failure.Code)
}
