// ====================================
// File: cmd/trader/main.go
// ====================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/chain"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/config"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/engine"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/jupiter"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/logger"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/market"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/resolver"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/session"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/token"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/trade"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/wallet"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	walletID := flag.String("wallet", "main", "wallet id to trade with")
	mint := flag.String("mint", "", "token mint address")
	query := flag.String("query", "", "token symbol or name to resolve")
	amount := flag.Float64("amount", 0, "amount (SOL for buys, tokens for sells)")
	limit := flag.Int("limit", 5, "max resolve candidates")
	maxImpact := flag.Float64("max-impact", 0, "max acceptable price impact pct (0 = unset)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprintln(os.Stderr, "usage: trader [flags] resolve|buy|sell|sell-all|preview-buy|preview-sell")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.DebugLogging)
	defer logger.Sync(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, cleanup, err := buildEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer cleanup()

	req := trade.Request{
		WalletID:  *walletID,
		TokenMint: *mint,
		AmountUi:  *amount,
	}
	if *maxImpact > 0 {
		req.MaxImpactPct = maxImpact
	}

	var out any
	switch command {
	case "resolve":
		out = eng.ResolveToken(ctx, *query, *limit)
	case "buy":
		out = eng.ExecuteBuy(ctx, "", req)
	case "sell":
		out = eng.ExecuteSell(ctx, "", req)
	case "sell-all":
		out = eng.ExecuteSellAll(ctx, "", req)
	case "preview-buy":
		out = eng.PreviewBuy(ctx, "", req)
	case "preview-sell":
		out = eng.PreviewSell(ctx, "", req)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		os.Exit(2)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(encoded))
}

func buildEngine(cfg *config.Config, log *zap.Logger) (*engine.Engine, func(), error) {
	client, err := chain.NewClient(cfg.RPCList, cfg.SendRetries, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	wallets := wallet.NewRegistry(log)
	if cfg.WalletsFile != "" {
		if err := wallets.LoadFile(cfg.WalletsFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load wallets: %w", err)
		}
	}

	marketSvc := market.NewService(cfg.MarketAPIURL, log)
	quoter := jupiter.NewClient(cfg.QuoteAPIURL, log)
	decimals := token.NewDecimalsCache(client, log)

	heur := resolver.DefaultHeuristics()
	heur.ScamLiquidityRatio = cfg.ScamLiquidityRatio
	heur.DeadVolumeThreshold = cfg.DeadVolumeThreshold
	heur.LowVolumeThreshold = cfg.LowVolumeThreshold
	res := resolver.New(marketSvc, heur, log)

	executor := trade.NewExecutor(trade.ExecutorConfig{
		Ledger:         client,
		Quoter:         quoter,
		Shopper:        trade.NewShopper(quoter, log),
		Fees:           trade.NewFeeEstimator(client, cfg.PriorityFeeCeiling, log),
		Preflight:      trade.NewPreflight(client, decimals, log),
		Wallets:        wallets,
		Decimals:       decimals,
		ConfirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
		Logger:         log,
	})

	defaults := engine.Defaults{
		SlippagesBps:    cfg.SlippageLadderBps,
		PriorityFeeBase: cfg.PriorityFeeBase,
		FeePercentile:   cfg.PriorityPercentile,
	}
	return engine.New(res, executor, session.NewMemoryStore(), defaults, log), marketSvc.Close, nil
}
