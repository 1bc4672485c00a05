package wallet

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWallet(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := New(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.Equal(t, key.PublicKey().String(), w.String())
}

func TestNewWalletInvalidKey(t *testing.T) {
	_, err := New("not-base58!!!")
	assert.Error(t, err)

	// valid base58 but wrong length
	_, err = New("3yZe7d")
	assert.Error(t, err)
}

func TestATAIsCached(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(key.String())
	require.NoError(t, err)

	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	first, err := w.ATA(mint)
	require.NoError(t, err)
	second, err := w.ATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
}

func TestRegistryLoadFile(t *testing.T) {
	key1, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	key2, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallets.csv")
	content := fmt.Sprintf("Name,PrivateKey\nmain,%s\nbroken,xxx\nsecond,%s\n", key1.String(), key2.String())
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	registry := NewRegistry(zap.NewNop())
	require.NoError(t, registry.LoadFile(path))

	w, err := registry.Load("main")
	require.NoError(t, err)
	assert.Equal(t, key1.PublicKey(), w.PublicKey)

	_, err = registry.Load("second")
	assert.NoError(t, err)

	// invalid rows are skipped, not fatal
	_, err = registry.Load("broken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryLoadUnknownWallet(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	_, err := registry.Load("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "ghost")
}
