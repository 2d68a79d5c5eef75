// Package analysis 将原始期权报价归一化为单腿分析记录（定价、Greeks、概率、流动性）。
package analysis

import (
	"time"

	"osprey/internal/pricing"
	"osprey/internal/types"
)

// Analyzer 持有无风险利率，对外提供纯函数式的单腿/期权链分析。
type Analyzer struct {
	RiskFreeRate float64
}

func NewAnalyzer(riskFreeRate float64) *Analyzer {
	return &Analyzer{RiskFreeRate: riskFreeRate}
}

// AnalyzeLeg 分析单个期权报价。任何内部失败（如缺失执行价）都返回
// Valid=false 的空记录，调用方按"无机会"处理而不是错误。
func (a *Analyzer) AnalyzeLeg(q types.OptionQuote, spot float64, daysToExpiry int) types.LegAnalysis {
	if q.Strike <= 0 || spot <= 0 || daysToExpiry < 0 {
		return types.LegAnalysis{}
	}

	t := float64(daysToExpiry) / 365.0
	iv := q.ImpliedVolatility

	mid := q.LastPrice
	if q.Bid > 0 && q.Ask > 0 {
		mid = (q.Bid + q.Ask) / 2
	}

	theoretical := pricing.Price(spot, q.Strike, t, a.RiskFreeRate, iv, q.Side)
	greeks := pricing.ComputeGreeks(spot, q.Strike, t, a.RiskFreeRate, iv, q.Side)

	probProfit := pricing.ProbProfitShort(spot, q.Strike, mid, t, iv, q.Side)
	probWorthless := pricing.ProbExpireWorthless(spot, q.Strike, t, iv, q.Side)
	moveDown, moveUp := pricing.ExpectedMove(spot, t, iv)

	intrinsic := pricing.Intrinsic(spot, q.Strike, q.Side)
	moneyness := spot / q.Strike
	if q.Side.IsPut() {
		moneyness = q.Strike / spot
	}

	var annualized float64
	if mid > 0 && daysToExpiry > 0 {
		annualized = (mid / q.Strike) * (365.0 / float64(daysToExpiry)) * 100
	}

	returns := types.LegReturns{
		MaxProfit:        mid,
		AnnualizedReturn: annualized,
	}
	if q.Side.IsPut() {
		returns.MaxLoss = q.Strike - mid
		returns.Breakeven = q.Strike - mid
	} else {
		returns.MaxLossUnbounded = true
		returns.Breakeven = q.Strike + mid
	}

	var spread, spreadPct float64
	if q.Ask > q.Bid {
		spread = q.Ask - q.Bid
	}
	if mid > 0 {
		spreadPct = spread / mid * 100
	}

	return types.LegAnalysis{
		Valid: true,
		Basic: types.LegBasic{
			Strike:            q.Strike,
			Side:              q.Side,
			DaysToExpiry:      daysToExpiry,
			MarketPrice:       q.LastPrice,
			Bid:               q.Bid,
			Ask:               q.Ask,
			MidPrice:          mid,
			Volume:            q.Volume,
			OpenInterest:      q.OpenInterest,
			ImpliedVolatility: iv * 100,
		},
		Pricing: types.LegPricing{
			TheoreticalPrice: theoretical,
			IntrinsicValue:   intrinsic,
			TimeValue:        mid - intrinsic,
			Moneyness:        moneyness,
		},
		Greeks: greeks,
		Probabilities: types.LegProbabilities{
			ProbProfitShort:     probProfit * 100,
			ProbExpireWorthless: probWorthless * 100,
			ExpectedMoveDown:    moveDown,
			ExpectedMoveUp:      moveUp,
		},
		Returns:   returns,
		Liquidity: types.Liquidity{BidAskSpread: spread, BidAskSpreadPct: spreadPct, Volume: q.Volume, OpenInterest: q.OpenInterest},
	}
}

// ChainAnalysis 汇总一条到期链上全部腿的分析结果。
type ChainAnalysis struct {
	Symbol       string              `json:"symbol"`
	ExpiryDate   string              `json:"expiry_date"`
	StockPrice   float64             `json:"stock_price"`
	DaysToExpiry int                 `json:"days_to_expiry"`
	Calls        []types.LegAnalysis `json:"calls"`
	Puts         []types.LegAnalysis `json:"puts"`
	AnalyzedAt   time.Time           `json:"analyzed_at"`
}

// AnalyzeChain 逐腿分析整条期权链，失败的腿被直接跳过。
func (a *Analyzer) AnalyzeChain(symbol, expiry string, calls, puts []types.OptionQuote, spot float64, daysToExpiry int) ChainAnalysis {
	out := ChainAnalysis{
		Symbol:       symbol,
		ExpiryDate:   expiry,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		AnalyzedAt:   time.Now(),
	}
	for _, q := range calls {
		if leg := a.AnalyzeLeg(q, spot, daysToExpiry); leg.Valid {
			out.Calls = append(out.Calls, leg)
		}
	}
	for _, q := range puts {
		if leg := a.AnalyzeLeg(q, spot, daysToExpiry); leg.Valid {
			out.Puts = append(out.Puts, leg)
		}
	}
	return out
}
