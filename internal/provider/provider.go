// Package provider 定义期权链数据源接口及其实现。
package provider

import (
	"context"

	"golang.org/x/time/rate"

	"osprey/internal/types"
)

// ExpirySlice 是单个到期日的期权链切片。
type ExpirySlice struct {
	ExpiryDate   string              `json:"expiry_date"`
	DaysToExpiry int                 `json:"days_to_expiry"`
	Calls        []types.OptionQuote `json:"calls"`
	Puts         []types.OptionQuote `json:"puts"`
}

// ChainSnapshot 是一个标的的完整行情快照。
type ChainSnapshot struct {
	Symbol           string        `json:"symbol"`
	StockPrice       float64       `json:"stock_price"`
	NextEarnings     string        `json:"next_earnings,omitempty"`
	HistoricalCloses []float64     `json:"historical_closes,omitempty"`
	Expiries         []ExpirySlice `json:"expiries"`
}

// ChainSource 提供标的的期权链快照。
type ChainSource interface {
	Snapshot(ctx context.Context, symbol string) (ChainSnapshot, error)
	Symbols(ctx context.Context) ([]string, error)
}

// RateLimited 在任意数据源外套一层令牌桶限速。
type RateLimited struct {
	src     ChainSource
	limiter *rate.Limiter
}

// NewRateLimited 以每秒 rps 个请求、burst 个突发令牌包装数据源。
func NewRateLimited(src ChainSource, rps float64, burst int) *RateLimited {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{src: src, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Snapshot(ctx context.Context, symbol string) (ChainSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ChainSnapshot{}, err
	}
	return r.src.Snapshot(ctx, symbol)
}

func (r *RateLimited) Symbols(ctx context.Context) ([]string, error) {
	return r.src.Symbols(ctx)
}
