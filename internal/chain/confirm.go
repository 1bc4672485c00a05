// internal/chain/confirm.go
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrConfirmationTimeout возвращается, когда транзакция не подтвердилась
// за отведенное время.
var ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

// checkConfirmation проверяет, подтверждена ли транзакция.
func (c *Client) checkConfirmation(ctx context.Context, signature solana.Signature) (bool, error) {
	response, err := withRetry(c, ctx, "getSignatureStatuses", func(rc *rpc.Client) (*rpc.GetSignatureStatusesResult, error) {
		return rc.GetSignatureStatuses(ctx, false, signature)
	})
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}

	if len(response.Value) == 0 || response.Value[0] == nil {
		return false, nil
	}

	status := response.Value[0]
	if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
		status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		return true, nil
	}
	return status.Confirmations != nil && *status.Confirmations >= 1, nil
}

// GetTransactionStatus возвращает текущий статус транзакции.
func (c *Client) GetTransactionStatus(ctx context.Context, signature solana.Signature) (*TxStatus, error) {
	response, err := withRetry(c, ctx, "getSignatureStatuses", func(rc *rpc.Client) (*rpc.GetSignatureStatusesResult, error) {
		return rc.GetSignatureStatuses(ctx, false, signature)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}

	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return &TxStatus{
			Signature: signature.String(),
			Status:    "pending",
			Timestamp: time.Now(),
		}, nil
	}

	status := response.Value[0]
	txStatus := &TxStatus{
		Signature: signature.String(),
		Timestamp: time.Now(),
		Slot:      status.Slot,
	}

	if status.Confirmations != nil {
		txStatus.Confirmations = *status.Confirmations
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		txStatus.Status = "finalized"
	case rpc.ConfirmationStatusConfirmed:
		txStatus.Status = "confirmed"
	default:
		txStatus.Status = "pending"
	}

	if status.Err != nil {
		// Сохраняем on-chain ошибку как есть для диагностики
		txStatus.Error = fmt.Sprintf("%v", status.Err)
		txStatus.Status = "failed"
	}

	return txStatus, nil
}

// AwaitConfirmation блокируется до подтверждения транзакции или таймаута.
func (c *Client) AwaitConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) (*TxStatus, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
			confirmed, err := c.checkConfirmation(ctx, signature)
			if err != nil {
				c.logger.Warn("Confirmation check failed", zap.Error(err))
				continue
			}
			if confirmed {
				return c.GetTransactionStatus(ctx, signature)
			}
		}
	}
}
