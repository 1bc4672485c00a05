// internal/trade/result.go
package trade

// Action identifies the direction of a trade.
type Action string

const (
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
	ActionSellAll Action = "sell_all"
)

const explorerBaseURL = "https://solscan.io/tx/"

// ExecutionResult is the structured outcome of one execution attempt.
// Created once per attempt and never mutated after construction; this
// subsystem does not persist it.
type ExecutionResult struct {
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
	ErrorCode   string  `json:"error_code,omitempty"`
	TxSignature string  `json:"tx_signature,omitempty"`
	WalletID    string  `json:"wallet_id"`
	Action      Action  `json:"action"`
	TokenMint   string  `json:"token_mint"`
	AmountInUi  string  `json:"amount_in_ui,omitempty"`
	AmountOutUi string  `json:"amount_out_ui,omitempty"`
	PriceImpact float64 `json:"price_impact_pct"`
	ExplorerURL string  `json:"explorer_url,omitempty"`
	Preview     bool    `json:"preview,omitempty"`
}

func failedResult(walletID string, action Action, tokenMint string, err error, fallback FailureCode) *ExecutionResult {
	return &ExecutionResult{
		Success:   false,
		Error:     err.Error(),
		ErrorCode: string(failureCode(err, fallback)),
		WalletID:  walletID,
		Action:    action,
		TokenMint: tokenMint,
	}
}
