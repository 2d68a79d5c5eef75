package types

// StrategyKind 表示支持的卖方策略类型。
type StrategyKind string

const (
	CoveredCall    StrategyKind = "covered_call"
	CashSecuredPut StrategyKind = "cash_secured_put"
	IronCondor     StrategyKind = "iron_condor"
	ShortStrangle  StrategyKind = "short_strangle"
	BullPutSpread  StrategyKind = "bull_put_spread"
	BearCallSpread StrategyKind = "bear_call_spread"

	// 裸卖腿在持仓跟踪与滚仓建议中与对应担保策略同等对待。
	ShortPut  StrategyKind = "short_put"
	ShortCall StrategyKind = "short_call"
)

// Valid 仅校验六个可组合的策略类型。
func (k StrategyKind) Valid() bool {
	switch k {
	case CoveredCall, CashSecuredPut, IronCondor, ShortStrangle, BullPutSpread, BearCallSpread:
		return true
	}
	return false
}

// IsPutSide 判断该策略的空头腿是否为 Put（滚仓方向判定用）。
func (k StrategyKind) IsPutSide() bool {
	return k == CashSecuredPut || k == ShortPut
}

// IsCallSide 判断该策略的空头腿是否为 Call。
func (k StrategyKind) IsCallSide() bool {
	return k == CoveredCall || k == ShortCall
}

// Strikes 按策略类型只填充相关的执行价字段。
// 不变量：BullPutSpread 要求 ShortPut > LongPut；BearCallSpread 要求 LongCall > ShortCall，
// 违反时组合函数直接返回"无机会"而非错误。
type Strikes struct {
	Strike    float64 `json:"strike,omitempty"` // 单腿策略主执行价
	ShortPut  float64 `json:"short_put,omitempty"`
	LongPut   float64 `json:"long_put,omitempty"`
	ShortCall float64 `json:"short_call,omitempty"`
	LongCall  float64 `json:"long_call,omitempty"`
}

// StrategyReturns 汇总策略级收益指标；金额均按单张合约（100 股）计。
// MaxLossUnbounded=true 时 MaxLoss 无意义，风控会替换为有界代理值。
type StrategyReturns struct {
	NetCredit          float64 `json:"net_credit,omitempty"`
	MaxProfit          float64 `json:"max_profit"`
	MaxLoss            float64 `json:"max_loss"`
	MaxLossUnbounded   bool    `json:"max_loss_unbounded,omitempty"`
	Breakeven          float64 `json:"breakeven,omitempty"`
	LowerBreakeven     float64 `json:"lower_breakeven,omitempty"`
	UpperBreakeven     float64 `json:"upper_breakeven,omitempty"`
	ProfitZoneWidth    float64 `json:"profit_zone_width,omitempty"`
	SpreadWidth        float64 `json:"spread_width,omitempty"`
	CashRequired       float64 `json:"cash_required,omitempty"`
	YieldIfUnchanged   float64 `json:"yield_if_unchanged,omitempty"`
	YieldIfCalled      float64 `json:"yield_if_called,omitempty"`
	YieldOnCash        float64 `json:"yield_on_cash,omitempty"`
	NetCostIfAssigned  float64 `json:"net_cost_if_assigned,omitempty"`
	DiscountToCurrent  float64 `json:"discount_to_current,omitempty"`
	DownsideProtection float64 `json:"downside_protection,omitempty"`
	ReturnOnRisk       float64 `json:"return_on_risk,omitempty"`
	AnnualizedYield    float64 `json:"annualized_yield"`
	ProfitProbability  float64 `json:"profit_probability,omitempty"`
}

// StrategyOpportunity 是组合后的策略级机会记录。
// Score 名义上限 100 分，不做截断；排序取决于筛选引擎。
type StrategyOpportunity struct {
	Kind           StrategyKind     `json:"strategy_type"`
	Symbol         string           `json:"symbol,omitempty"`
	StockPrice     float64          `json:"stock_price"`
	ExpiryDate     string           `json:"expiry_date,omitempty"`
	DaysToExpiry   int              `json:"days_to_expiry"`
	Strikes        Strikes          `json:"strikes"`
	Premium        float64          `json:"premium,omitempty"`
	Shares         int              `json:"shares,omitempty"`
	WingWidth      float64          `json:"wing_width,omitempty"`
	Returns        StrategyReturns  `json:"returns"`
	Probabilities  LegProbabilities `json:"probabilities"`
	Greeks         Greeks           `json:"greeks"`
	Liquidity      Liquidity        `json:"liquidity"`
	IVPct          float64          `json:"iv_pct,omitempty"`
	ExpectedMove   float64          `json:"expected_move,omitempty"`
	DeltaNeutral   bool             `json:"delta_neutral,omitempty"`
	EarningsNearby bool             `json:"earnings_nearby,omitempty"`
	DaysToEarnings int              `json:"days_to_earnings,omitempty"`
	Score          float64          `json:"score"`
	ShortLeg       LegAnalysis      `json:"short_leg,omitempty"`
}

// RollType 表示滚仓方案类型。
type RollType string

const (
	RollOut     RollType = "roll_out"
	RollDownOut RollType = "roll_down_out"
	RollUpOut   RollType = "roll_up_out"
)

// RollCandidate 是滚仓估算器给出的单个方案。
// EstimatedCredit 为正表示净收入，为负表示净支出（每股）。
type RollCandidate struct {
	Type            RollType `json:"roll_type"`
	Label           string   `json:"label"`
	NewStrike       float64  `json:"new_strike"`
	NewExpiry       string   `json:"new_expiry"`
	NewDTE          int      `json:"new_dte"`
	EstimatedCredit float64  `json:"estimated_credit"`
	OriginalPremium float64  `json:"original_premium"`
	InTheMoney      bool     `json:"is_itm"`
	Rationale       string   `json:"rationale"`
}
