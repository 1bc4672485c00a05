// internal/jupiter/client.go
// Package jupiter implements the quote-provider contract against a
// Jupiter v6 compatible aggregator API.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// SwapMode selects how the quoted amount is interpreted.
type SwapMode string

const (
	// ExactIn quotes for an exact input amount.
	ExactIn SwapMode = "ExactIn"
	// ExactOut quotes for an exact desired output amount.
	ExactOut SwapMode = "ExactOut"
)

// QuoteRequest describes one quote lookup.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
	Mode        SwapMode
}

// Quote captures the subset of the quote response relied on by the
// executor. A quote is priced for an exact amount: it is single-use and
// must be passed unmodified into transaction building.
type Quote struct {
	InputMint      string          `json:"inputMint"`
	OutputMint     string          `json:"outputMint"`
	InAmount       string          `json:"inAmount"`
	OutAmount      string          `json:"outAmount"`
	OtherAmount    string          `json:"otherAmountThreshold"`
	SwapMode       string          `json:"swapMode"`
	SlippageBps    int             `json:"slippageBps"`
	PriceImpactPct float64         `json:"priceImpactPct,string"`
	RoutePlan      json.RawMessage `json:"routePlan"`

	// raw хранит ответ провайдера байт-в-байт: /v6/swap должен получить
	// котировку со всеми полями, включая не разбираемые здесь.
	raw json.RawMessage
}

// InAmountRaw возвращает входную сумму котировки в raw единицах.
func (q *Quote) InAmountRaw() uint64 {
	v, _ := strconv.ParseUint(q.InAmount, 10, 64)
	return v
}

// OutAmountRaw возвращает выходную сумму котировки в raw единицах.
func (q *Quote) OutAmountRaw() uint64 {
	v, _ := strconv.ParseUint(q.OutAmount, 10, 64)
	return v
}

// PriceImpact возвращает price impact котировки в процентах.
func (q *Quote) PriceImpact() float64 {
	return q.PriceImpactPct
}

// Client talks to the aggregator REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 8 * time.Second},
		logger:  logger.Named("jupiter"),
	}
}

// GetQuote asks the aggregator for a priced route.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	values := url.Values{}
	values.Set("inputMint", req.InputMint)
	values.Set("outputMint", req.OutputMint)
	values.Set("amount", strconv.FormatUint(req.Amount, 10))
	values.Set("slippageBps", strconv.Itoa(req.SlippageBps))
	values.Set("swapMode", string(req.Mode))
	values.Set("onlyDirectRoutes", "false")
	reqURL := c.baseURL + "/v6/quote?" + values.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote: %w", err)
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	quote.raw = body
	return &quote, nil
}

// GetSwapTransaction asks the aggregator to build an unsigned swap
// transaction for the exact chosen quote.
func (c *Client) GetSwapTransaction(ctx context.Context, quote *Quote, userPublicKey solana.PublicKey, priorityFee uint64) (*solana.Transaction, error) {
	var quoteResponse any = quote
	if len(quote.raw) > 0 {
		quoteResponse = quote.raw
	}
	payload := map[string]any{
		"userPublicKey":             userPublicKey.String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"prioritizationFeeLamports": priorityFee,
		"quoteResponse":             quoteResponse,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap status %d", resp.StatusCode)
	}

	var sr struct {
		SwapTransaction string `json:"swapTransaction"` // base64-encoded tx (unsigned)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode tx: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tx: %w", err)
	}
	return tx, nil
}
