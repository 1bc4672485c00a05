package token

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type erroringReader struct {
	calls int
}

func (r *erroringReader) GetAccountInfo(_ context.Context, _ solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	r.calls++
	return nil, errors.New("rpc unavailable")
}

func TestToRaw(t *testing.T) {
	tests := []struct {
		name     string
		amountUi float64
		decimals uint8
		expected uint64
	}{
		{"whole sol", 1.0, 9, 1_000_000_000},
		{"fractional", 1.5, 9, 1_500_000_000},
		{"usdc precision", 2.25, 6, 2_250_000},
		{"truncates toward zero", 0.9999999999, 2, 99},
		{"zero", 0, 9, 0},
		{"negative clamps to zero", -1.5, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToRaw(tt.amountUi, tt.decimals))
		})
	}
}

func TestToUi(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint64
		decimals uint8
		expected string
	}{
		{"whole", 1_000_000_000, 9, "1"},
		{"fractional", 1_500_000_000, 9, "1.5"},
		{"smallest unit", 1, 9, "0.000000001"},
		{"trims trailing zeros", 1_230_000_000, 9, "1.23"},
		{"zero decimals", 42, 0, "42"},
		{"zero amount", 0, 9, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToUi(tt.raw, tt.decimals))
		})
	}
}

// Amounts that are exact in binary must survive a UI -> raw -> UI trip
// without drift.
func TestConversionRoundTrip(t *testing.T) {
	tests := []struct {
		amountUi float64
		decimals uint8
		expected string
	}{
		{1.5, 9, "1.5"},
		{2.25, 6, "2.25"},
		{100, 9, "100"},
		{0.5, 2, "0.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToUi(ToRaw(tt.amountUi, tt.decimals), tt.decimals))
	}
}

func TestDecimalsKnownMints(t *testing.T) {
	reader := &erroringReader{}
	cache := NewDecimalsCache(reader, zap.NewNop())
	ctx := context.Background()

	wsol := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdc := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	usdt := solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")

	assert.Equal(t, uint8(9), cache.Decimals(ctx, wsol))
	assert.Equal(t, uint8(6), cache.Decimals(ctx, usdc))
	assert.Equal(t, uint8(6), cache.Decimals(ctx, usdt))
	assert.Equal(t, 0, reader.calls, "known mints must not hit the network")
}

func TestDecimalsFallbackOnError(t *testing.T) {
	reader := &erroringReader{}
	cache := NewDecimalsCache(reader, zap.NewNop())

	mint, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)

	got := cache.Decimals(context.Background(), mint.PublicKey())
	assert.Equal(t, DefaultDecimals, got)
	assert.Equal(t, 1, reader.calls)
}
