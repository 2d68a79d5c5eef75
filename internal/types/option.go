package types

import "strings"

// OptionSide 表示期权方向（call / put）。
type OptionSide string

const (
	Call OptionSide = "call"
	Put  OptionSide = "put"
)

// ParseSide 宽松解析方向字符串，未识别时返回 Call。
func ParseSide(s string) OptionSide {
	if strings.EqualFold(strings.TrimSpace(s), string(Put)) {
		return Put
	}
	return Call
}

func (s OptionSide) IsPut() bool { return s == Put }

// OptionQuote 是外部行情源提供的单个期权报价，核心只读不改。
type OptionQuote struct {
	ContractSymbol    string     `json:"contract_symbol"`
	Side              OptionSide `json:"side"`
	Strike            float64    `json:"strike"`
	LastPrice         float64    `json:"last_price"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility"` // 年化小数，如 0.35
	InTheMoney        bool       `json:"in_the_money"`
}

// Greeks 保存五个一阶/二阶敏感度。theta 为每日，vega/rho 为每 1% 变动。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add 返回两组 Greeks 的逐项和。
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Neg 返回逐项取负的 Greeks（空头腿）。
func (g Greeks) Neg() Greeks {
	return Greeks{Delta: -g.Delta, Gamma: -g.Gamma, Theta: -g.Theta, Vega: -g.Vega, Rho: -g.Rho}
}

// Liquidity 汇总买卖价差与成交量指标。
type Liquidity struct {
	BidAskSpread    float64 `json:"bid_ask_spread"`
	BidAskSpreadPct float64 `json:"bid_ask_spread_pct"`
	Volume          int64   `json:"volume"`
	OpenInterest    int64   `json:"open_interest"`
}

// LegBasic 是单腿分析的基础字段。ImpliedVolatility 已换算为百分比。
type LegBasic struct {
	Strike            float64    `json:"strike"`
	Side              OptionSide `json:"side"`
	DaysToExpiry      int        `json:"days_to_expiry"`
	MarketPrice       float64    `json:"market_price"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	MidPrice          float64    `json:"mid_price"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility"`
}

// LegPricing 是理论价与价值拆分。
type LegPricing struct {
	TheoreticalPrice float64 `json:"theoretical_price"`
	IntrinsicValue   float64 `json:"intrinsic_value"`
	TimeValue        float64 `json:"time_value"`
	Moneyness        float64 `json:"moneyness"`
}

// LegProbabilities 中的概率均为百分比（0~100）。
type LegProbabilities struct {
	ProbProfitShort     float64 `json:"prob_profit_short"`
	ProbExpireWorthless float64 `json:"prob_expire_worthless"`
	ExpectedMoveDown    float64 `json:"expected_move_down"`
	ExpectedMoveUp      float64 `json:"expected_move_up"`
}

// LegReturns 按卖方视角计算单腿收益。
type LegReturns struct {
	MaxProfit        float64 `json:"max_profit"`
	MaxLoss          float64 `json:"max_loss"`
	MaxLossUnbounded bool    `json:"max_loss_unbounded"`
	Breakeven        float64 `json:"breakeven"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// LegAnalysis 是 LegAnalyzer 的输出；Valid=false 表示输入不可用，按"无机会"处理。
type LegAnalysis struct {
	Valid         bool             `json:"valid"`
	Basic         LegBasic         `json:"basic"`
	Pricing       LegPricing       `json:"pricing"`
	Greeks        Greeks           `json:"greeks"`
	Probabilities LegProbabilities `json:"probabilities"`
	Returns       LegReturns       `json:"returns"`
	Liquidity     Liquidity        `json:"liquidity"`
}
