// internal/engine/engine.go
// Package engine is the entry-point facade for the trade tools: it
// applies per-session overrides and converts every outcome into the
// structured result shape. No operation lets an error escape as a raw
// panic or exception past this boundary.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/BranchManager69/dexter-mcp-sub001/internal/resolver"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/session"
	"github.com/BranchManager69/dexter-mcp-sub001/internal/trade"
)

// Defaults are the configured trade parameters used when neither the
// request nor the session overrides them.
type Defaults struct {
	SlippagesBps    []int
	PriorityFeeBase uint64
	FeePercentile   int
}

type Engine struct {
	resolver *resolver.Resolver
	executor *trade.Executor
	sessions session.Store
	defaults Defaults
	logger   *zap.Logger
}

func New(res *resolver.Resolver, exec *trade.Executor, sessions session.Store, defaults Defaults, logger *zap.Logger) *Engine {
	return &Engine{
		resolver: res,
		executor: exec,
		sessions: sessions,
		defaults: defaults,
		logger:   logger.Named("engine"),
	}
}

// ResolveResult is the structured outcome of a token resolution.
type ResolveResult struct {
	Success    bool                 `json:"success"`
	Error      string               `json:"error,omitempty"`
	Query      string               `json:"query"`
	Candidates []resolver.Candidate `json:"candidates"`
}

// ResolveToken ranks mint candidates for a free-text query. An empty
// candidate list is a successful result.
func (e *Engine) ResolveToken(ctx context.Context, query string, limit int) *ResolveResult {
	candidates, err := e.resolver.Resolve(ctx, query, limit)
	if err != nil {
		return &ResolveResult{Query: query, Error: err.Error(), Candidates: []resolver.Candidate{}}
	}
	if candidates == nil {
		candidates = []resolver.Candidate{}
	}
	return &ResolveResult{Success: true, Query: query, Candidates: candidates}
}

// ExecuteBuy runs a buy end to end.
func (e *Engine) ExecuteBuy(ctx context.Context, sessionID string, req trade.Request) *trade.ExecutionResult {
	return e.executor.Buy(ctx, e.applyOverrides(sessionID, req))
}

// ExecuteSell runs a sell end to end.
func (e *Engine) ExecuteSell(ctx context.Context, sessionID string, req trade.Request) *trade.ExecutionResult {
	return e.executor.Sell(ctx, e.applyOverrides(sessionID, req))
}

// ExecuteSellAll sells the wallet's full token balance.
func (e *Engine) ExecuteSellAll(ctx context.Context, sessionID string, req trade.Request) *trade.ExecutionResult {
	return e.executor.SellAll(ctx, e.applyOverrides(sessionID, req))
}

// PreviewBuy estimates a buy without executing it.
func (e *Engine) PreviewBuy(ctx context.Context, sessionID string, req trade.Request) *trade.ExecutionResult {
	return e.executor.Preview(ctx, e.applyOverrides(sessionID, req), trade.ActionBuy)
}

// PreviewSell estimates a sell without executing it.
func (e *Engine) PreviewSell(ctx context.Context, sessionID string, req trade.Request) *trade.ExecutionResult {
	return e.executor.Preview(ctx, e.applyOverrides(sessionID, req), trade.ActionSell)
}

// SetSessionOverrides pins trade tunables for a session.
func (e *Engine) SetSessionOverrides(sessionID string, o session.Overrides) {
	e.sessions.Set(sessionID, o)
}

// ClearSessionOverrides drops a session's pinned tunables.
func (e *Engine) ClearSessionOverrides(sessionID string) {
	e.sessions.Clear(sessionID)
}

// applyOverrides resolves each tunable as: explicit request value,
// else session override, else configured default.
func (e *Engine) applyOverrides(sessionID string, req trade.Request) trade.Request {
	overrides, ok := e.sessions.Get(sessionID)

	if len(req.SlippagesBps) == 0 {
		if ok && len(overrides.SlippagesBps) > 0 {
			req.SlippagesBps = overrides.SlippagesBps
		} else {
			req.SlippagesBps = e.defaults.SlippagesBps
		}
	}
	if req.MaxImpactPct == nil && ok && overrides.MaxImpactPct != nil {
		req.MaxImpactPct = overrides.MaxImpactPct
	}
	if req.PriorityFeeBase == 0 {
		if ok && overrides.PriorityFeeBase != nil {
			req.PriorityFeeBase = *overrides.PriorityFeeBase
		} else {
			req.PriorityFeeBase = e.defaults.PriorityFeeBase
		}
	}
	if req.FeePercentile == 0 {
		if ok && overrides.FeePercentile != nil {
			req.FeePercentile = *overrides.FeePercentile
		} else {
			req.FeePercentile = e.defaults.FeePercentile
		}
	}
	return req
}
