package screener

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"osprey/internal/analysis"
	"osprey/internal/logger"
	"osprey/internal/strategy"
	"osprey/internal/types"
)

// SymbolInput 是一个标的在单个到期日上的筛选输入。
type SymbolInput struct {
	Symbol           string              `json:"symbol"`
	StockPrice       float64             `json:"stock_price"`
	ExpiryDate       string              `json:"expiry_date"`
	DaysToExpiry     int                 `json:"days_to_expiry"`
	Calls            []types.OptionQuote `json:"calls"`
	Puts             []types.OptionQuote `json:"puts"`
	NextEarnings     string              `json:"next_earnings,omitempty"`
	HistoricalCloses []float64           `json:"historical_closes,omitempty"`
}

// Engine 对期权链执行候选生成、规则过滤与评分排名。
type Engine struct {
	analyzer *analysis.Analyzer
	now      func() time.Time
}

func NewEngine(a *analysis.Analyzer) *Engine {
	return &Engine{analyzer: a, now: time.Now}
}

// Screen 对已组合好的候选机会应用阈值过滤并按得分降序返回。
// 候选本身无效（Valid=false 的腿在组合阶段已被丢弃）不在此处处理。
func (e *Engine) Screen(kind types.StrategyKind, candidates []types.StrategyOpportunity, crit Criteria) []types.StrategyOpportunity {
	var kept []types.StrategyOpportunity
	for _, opp := range candidates {
		if e.passes(kind, opp, crit) {
			kept = append(kept, opp)
		}
	}
	return Rank(kept)
}

// ScreenSymbol 从一条期权链生成指定策略的全部候选并筛选，
// 每个策略最多保留 MaxResultsPerSymbol 条。
func (e *Engine) ScreenSymbol(in SymbolInput, kinds []types.StrategyKind, crit Criteria) []types.StrategyOpportunity {
	if in.StockPrice < crit.MinStockPrice || in.StockPrice > crit.MaxStockPrice {
		return nil
	}
	if in.DaysToExpiry < crit.MinDaysToExpiry || in.DaysToExpiry > crit.MaxDaysToExpiry {
		return nil
	}
	if !TechnicalFilter(in.HistoricalCloses, in.StockPrice) {
		logger.Debugf("screener: %s 未通过技术面过滤", in.Symbol)
		return nil
	}

	var out []types.StrategyOpportunity
	for _, kind := range kinds {
		candidates := e.buildCandidates(in, kind, crit)
		ranked := e.Screen(kind, candidates, crit)
		limit := crit.MaxResultsPerSymbol
		if limit > 0 && len(ranked) > limit {
			ranked = ranked[:limit]
		}
		out = append(out, ranked...)
	}
	logger.Infof("screener: %s %s 产出 %d 条机会", in.Symbol, in.ExpiryDate, len(out))
	return out
}

// ScreenSymbols 并发筛选多个标的，结果保持输入顺序。
func (e *Engine) ScreenSymbols(ctx context.Context, inputs []SymbolInput, kinds []types.StrategyKind, crit Criteria) ([][]types.StrategyOpportunity, error) {
	results := make([][]types.StrategyOpportunity, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.ScreenSymbol(in, kinds, crit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TopOpportunities 合并多标的结果做全局排名，返回前 maxResults 条。
func (e *Engine) TopOpportunities(ctx context.Context, inputs []SymbolInput, kinds []types.StrategyKind, crit Criteria, maxResults int) ([]types.StrategyOpportunity, error) {
	perSymbol, err := e.ScreenSymbols(ctx, inputs, kinds, crit)
	if err != nil {
		return nil, err
	}
	var all []types.StrategyOpportunity
	for _, opps := range perSymbol {
		all = append(all, opps...)
	}
	ranked := Rank(all)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked, nil
}

// buildCandidates 按策略类型从期权链组合候选机会。
func (e *Engine) buildCandidates(in SymbolInput, kind types.StrategyKind, crit Criteria) []types.StrategyOpportunity {
	strategyCrit := crit.ForStrategy(kind)

	calls := e.analyzeQuotes(in.Calls, in.StockPrice, in.DaysToExpiry, crit)
	puts := e.analyzeQuotes(in.Puts, in.StockPrice, in.DaysToExpiry, crit)

	var out []types.StrategyOpportunity
	emit := func(opp types.StrategyOpportunity, ok bool) {
		if !ok {
			return
		}
		opp.Symbol = in.Symbol
		opp.ExpiryDate = in.ExpiryDate
		if EarningsNearby(e.expiryTime(in), in.NextEarnings) {
			opp.EarningsNearby = true
			opp.DaysToEarnings = daysUntil(e.now(), in.NextEarnings)
		}
		out = append(out, opp)
	}

	switch kind {
	case types.CoveredCall:
		for _, leg := range calls {
			emit(strategy.CoveredCall(in.StockPrice, leg, in.DaysToExpiry, 0))
		}
	case types.CashSecuredPut:
		for _, leg := range puts {
			emit(strategy.CashSecuredPut(in.StockPrice, leg, in.DaysToExpiry))
		}
	case types.ShortStrangle:
		seen := make(map[[2]float64]bool)
		for _, call := range calls {
			if call.Basic.Strike <= in.StockPrice {
				continue
			}
			for _, put := range puts {
				if put.Basic.Strike >= in.StockPrice {
					continue
				}
				key := [2]float64{put.Basic.Strike, call.Basic.Strike}
				if seen[key] {
					continue
				}
				seen[key] = true
				emit(strategy.ShortStrangle(in.StockPrice, call, put, in.DaysToExpiry))
			}
		}
	case types.BullPutSpread:
		for _, short := range puts {
			for _, long := range puts {
				if !widthOK(short.Basic.Strike-long.Basic.Strike, strategyCrit) {
					continue
				}
				emit(strategy.BullPutSpread(in.StockPrice, short, long, in.DaysToExpiry))
			}
		}
	case types.BearCallSpread:
		for _, short := range calls {
			for _, long := range calls {
				if !widthOK(long.Basic.Strike-short.Basic.Strike, strategyCrit) {
					continue
				}
				emit(strategy.BearCallSpread(in.StockPrice, short, long, in.DaysToExpiry))
			}
		}
	case types.IronCondor:
		for _, shortPut := range puts {
			if shortPut.Basic.Strike >= in.StockPrice {
				continue
			}
			for _, longPut := range puts {
				if !widthOK(shortPut.Basic.Strike-longPut.Basic.Strike, strategyCrit) {
					continue
				}
				for _, shortCall := range calls {
					if shortCall.Basic.Strike <= in.StockPrice {
						continue
					}
					for _, longCall := range calls {
						if !widthOK(longCall.Basic.Strike-shortCall.Basic.Strike, strategyCrit) {
							continue
						}
						emit(strategy.IronCondor(in.StockPrice, shortCall, longCall, shortPut, longPut, in.DaysToExpiry))
					}
				}
			}
		}
	}
	return out
}

// analyzeQuotes 先做流动性预过滤再逐腿分析，减少无效组合。
func (e *Engine) analyzeQuotes(quotes []types.OptionQuote, spot float64, dte int, crit Criteria) []types.LegAnalysis {
	var out []types.LegAnalysis
	for _, q := range quotes {
		if !quoteLiquidityOK(q, crit) {
			continue
		}
		if leg := e.analyzer.AnalyzeLeg(q, spot, dte); leg.Valid {
			out = append(out, leg)
		}
	}
	return out
}

// passes 应用通用阈值与按策略类型的额外校验。
func (e *Engine) passes(kind types.StrategyKind, opp types.StrategyOpportunity, crit Criteria) bool {
	c := crit.ForStrategy(kind)

	if opp.StockPrice < c.MinStockPrice || opp.StockPrice > c.MaxStockPrice {
		return false
	}
	if opp.DaysToExpiry < c.MinDaysToExpiry || opp.DaysToExpiry > c.MaxDaysToExpiry {
		return false
	}
	if c.AvoidEarnings && opp.EarningsNearby {
		return false
	}
	if opp.Liquidity.Volume < c.MinVolume || opp.Liquidity.OpenInterest < c.MinOpenInterest {
		return false
	}
	if opp.Liquidity.BidAskSpreadPct > c.MaxBidAskSpreadPct {
		return false
	}
	if opp.Returns.AnnualizedYield < c.MinAnnualizedReturn {
		return false
	}
	if profitProbability(opp) < c.MinProfitProbability {
		return false
	}

	switch kind {
	case types.CoveredCall, types.CashSecuredPut:
		delta := absf(opp.Greeks.Delta)
		if delta < c.MinDelta || delta > c.MaxDelta {
			return false
		}
		if opp.Returns.AnnualizedYield <= 0 {
			return false
		}
	case types.ShortStrangle:
		if opp.Returns.ProfitProbability < 30 || opp.Returns.NetCredit <= 0 {
			return false
		}
	case types.IronCondor:
		if opp.Returns.NetCredit <= 0 {
			return false
		}
	case types.BullPutSpread, types.BearCallSpread:
		if opp.Returns.NetCredit <= 0 || opp.Returns.AnnualizedYield < 0 {
			return false
		}
	}
	return true
}

func profitProbability(opp types.StrategyOpportunity) float64 {
	if opp.Returns.ProfitProbability > 0 {
		return opp.Returns.ProfitProbability
	}
	return opp.Probabilities.ProbProfitShort
}

// quoteLiquidityOK 按成交量、持仓量和买卖价差过滤原始报价。
func quoteLiquidityOK(q types.OptionQuote, crit Criteria) bool {
	if q.Volume < crit.MinVolume || q.OpenInterest < crit.MinOpenInterest {
		return false
	}
	if q.Bid > 0 && q.Ask > q.Bid {
		mid := (q.Bid + q.Ask) / 2
		if (q.Ask-q.Bid)/mid*100 > crit.MaxBidAskSpreadPct {
			return false
		}
	}
	return true
}

func widthOK(width float64, crit Criteria) bool {
	return width >= crit.MinSpreadWidth && width <= crit.MaxSpreadWidth
}

func (e *Engine) expiryTime(in SymbolInput) time.Time {
	if t, err := time.Parse("2006-01-02", in.ExpiryDate); err == nil {
		return t
	}
	return e.now().AddDate(0, 0, in.DaysToExpiry)
}

func daysUntil(now time.Time, date string) int {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return int(t.Sub(now).Hours() / 24)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
