// Package store 定义持仓与分析历史的持久化接口。
package store

import (
	"context"

	"osprey/internal/types"
)

// PortfolioGreeks 是在持头寸 Greeks 的聚合结果（已乘张数与 100 股）。
type PortfolioGreeks struct {
	TotalDelta float64                 `json:"total_delta"`
	TotalTheta float64                 `json:"total_theta"`
	TotalGamma float64                 `json:"total_gamma"`
	TotalVega  float64                 `json:"total_vega"`
	BySymbol   map[string]types.Greeks `json:"by_symbol"`
}

// PortfolioSummary 是组合层面的统计。
type PortfolioSummary struct {
	OpenCount             int            `json:"open_count"`
	ClosedCount           int            `json:"closed_count"`
	RealizedPnL           float64        `json:"realized_pnl"`
	TotalPremiumCollected float64        `json:"total_premium_collected"`
	StrategyDistribution  map[string]int `json:"strategy_distribution"`
	SymbolDistribution    map[string]int `json:"symbol_distribution"`
}

// PositionStore 管理持仓记录与 wheel 状态。
type PositionStore interface {
	AddPosition(ctx context.Context, pos types.OpenPosition) (int64, error)
	ListPositions(ctx context.Context, status string) ([]types.OpenPosition, error)
	GetPosition(ctx context.Context, id int64) (types.OpenPosition, error)
	ClosePosition(ctx context.Context, id int64, closePremium float64, closeDate string) error
	DeletePosition(ctx context.Context, id int64) error
	UpdateWheelState(ctx context.Context, id int64, state types.WheelState, tr types.WheelTransition) error
	ListWheelPositions(ctx context.Context) ([]types.OpenPosition, error)
	UpdateGreeks(ctx context.Context, id int64, g types.Greeks) error
	PortfolioGreeks(ctx context.Context) (PortfolioGreeks, error)
	PortfolioSummary(ctx context.Context) (PortfolioSummary, error)
	Close() error
}

// AnalysisRun 是一次筛选运行的摘要行。
type AnalysisRun struct {
	ID               int64  `json:"id"`
	RunID            string `json:"run_id"`
	Timestamp        int64  `json:"timestamp"`
	Symbols          string `json:"symbols"`
	Preset           string `json:"strategy_preset"`
	NumOpportunities int    `json:"num_opportunities"`
}

// AnalysisDetail 带上完整结果与市场上下文。
type AnalysisDetail struct {
	AnalysisRun
	Opportunities []types.StrategyOpportunity `json:"results"`
	MarketContext map[string]any              `json:"market_context"`
}

// HistoryStore 记录历次筛选运行，供回看与可视化。
type HistoryStore interface {
	SaveRun(ctx context.Context, symbols []string, preset string, opps []types.StrategyOpportunity, marketContext map[string]any) (string, error)
	ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error)
	GetRun(ctx context.Context, runID string) (AnalysisDetail, error)
	Close() error
}
