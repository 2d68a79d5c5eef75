// Package risk 提供保证金估算、头寸规模控制与组合级风险度量。
package risk

import (
	"fmt"

	"osprey/internal/logger"
	"osprey/internal/types"
)

// RiskLevel 是头寸或组合的风险等级标签。
type RiskLevel string

const (
	RiskLow     RiskLevel = "低风险"
	RiskMedium  RiskLevel = "中等风险"
	RiskHigh    RiskLevel = "高风险"
	RiskExtreme RiskLevel = "极高风险"
)

// Recommendation 是交易建议动作。
type Recommendation string

const (
	StrongBuy Recommendation = "STRONG_BUY"
	Buy       Recommendation = "BUY"
	Hold      Recommendation = "HOLD"
	Caution   Recommendation = "CAUTION"
	Avoid     Recommendation = "AVOID"
)

// PositionRisk 是单头寸的风险指标。金额按合约总额（size 张）计。
// RiskRewardUnbounded=true 表示最大收益为零、比值无意义。
type PositionRisk struct {
	PositionSize         int     `json:"position_size"`
	MaxProfit            float64 `json:"max_profit"`
	MaxLoss              float64 `json:"max_loss"`
	CapitalAtRiskPct     float64 `json:"capital_at_risk_pct"`
	ProfitPotentialPct   float64 `json:"profit_potential_pct"`
	RiskRewardRatio      float64 `json:"risk_reward_ratio"`
	RiskRewardUnbounded  bool    `json:"risk_reward_unbounded,omitempty"`
	BreakEvenSuccessRate float64 `json:"break_even_success_rate"`
	MarginRequirement    float64 `json:"margin_requirement"`
	BuyingPowerReduction float64 `json:"buying_power_reduction"`
	ReturnOnMargin       float64 `json:"return_on_margin"`
}

// Calculator 以初始资金为基准计算头寸与组合风险。
type Calculator struct {
	Capital float64
}

func NewCalculator(capital float64) *Calculator {
	if capital <= 0 {
		capital = 100000
	}
	return &Calculator{Capital: capital}
}

// PositionRisk 计算 size 张合约的风险指标。
// 无上限的最大损失按策略类型替换为有界代理值。
func (c *Calculator) PositionRisk(opp types.StrategyOpportunity, size int) PositionRisk {
	maxProfit := opp.Returns.MaxProfit * float64(size)
	maxLoss := c.boundedMaxLoss(opp, size)

	out := PositionRisk{
		PositionSize: size,
		MaxProfit:    maxProfit,
		MaxLoss:      maxLoss,
	}
	if c.Capital > 0 {
		out.CapitalAtRiskPct = maxLoss / c.Capital * 100
		out.ProfitPotentialPct = maxProfit / c.Capital * 100
	}
	if maxProfit > 0 {
		out.RiskRewardRatio = maxLoss / maxProfit
	} else {
		out.RiskRewardUnbounded = true
	}
	if maxLoss+maxProfit > 0 {
		out.BreakEvenSuccessRate = maxLoss / (maxLoss + maxProfit)
	}

	margin := c.MarginRequirement(opp, size)
	out.MarginRequirement = margin
	out.BuyingPowerReduction = margin
	if margin > 0 {
		out.ReturnOnMargin = maxProfit / margin * 100
	}
	return out
}

// boundedMaxLoss 将无上限损失替换为代理值：备兑看涨按一倍股价，
// 宽跨式按三倍股价，其余策略视为 0。
func (c *Calculator) boundedMaxLoss(opp types.StrategyOpportunity, size int) float64 {
	if !opp.Returns.MaxLossUnbounded {
		return opp.Returns.MaxLoss * float64(size)
	}
	switch opp.Kind {
	case types.CoveredCall, types.ShortCall:
		return opp.StockPrice * float64(size) * 100
	case types.ShortStrangle:
		return opp.StockPrice * 3 * float64(size) * 100
	default:
		return 0
	}
}

// MarginRequirement 按策略类型估算保证金。
func (c *Calculator) MarginRequirement(opp types.StrategyOpportunity, size int) float64 {
	n := float64(size)
	switch opp.Kind {
	case types.CoveredCall:
		// 备兑需持有正股，占用等于股票市值
		return opp.StockPrice * 100 * n
	case types.CashSecuredPut:
		strike := opp.Strikes.Strike
		return strike * 100 * n
	case types.ShortStrangle:
		// 简化的SPAN：put 腿与现价腿各按 20% 取大
		putMargin := opp.Strikes.ShortPut * 100 * 0.2
		callMargin := opp.StockPrice * 100 * 0.2
		if putMargin > callMargin {
			return putMargin * n
		}
		return callMargin * n
	case types.IronCondor:
		wing := opp.WingWidth
		if wing <= 0 {
			wing = 5
		}
		return wing * 100 * n
	default:
		return opp.StockPrice * 100 * 0.2 * n
	}
}

// Sizer 按风险预算与保证金约束计算头寸规模。
type Sizer struct {
	MaxRiskPerTrade  float64
	MaxPortfolioRisk float64
}

func NewSizer() *Sizer {
	return &Sizer{MaxRiskPerTrade: 0.02, MaxPortfolioRisk: 0.1}
}

// Sizing 是规模计算的结果与依据。
type Sizing struct {
	RecommendedSize  int      `json:"recommended_size"`
	RiskBasedSize    int      `json:"risk_based_size"`
	MarginBasedSize  int      `json:"margin_based_size"`
	ActualRiskAmount float64  `json:"actual_risk_amount"`
	ActualRiskPct    float64  `json:"actual_risk_pct"`
	MarginRequired   float64  `json:"margin_required"`
	Reason           string   `json:"reason"`
	Warnings         []string `json:"warnings,omitempty"`
}

// OptimalSize 取风险预算规模与保证金规模的较小值，上限 10 张。
// 最大损失为零或无上限时返回零规模。
func (s *Sizer) OptimalSize(calc *Calculator, opp types.StrategyOpportunity, availableCapital float64) Sizing {
	maxLoss := opp.Returns.MaxLoss
	if maxLoss <= 0 || opp.Returns.MaxLossUnbounded {
		return Sizing{Reason: "最大损失无上限或为零，无法计算合理规模"}
	}

	riskBudget := availableCapital * s.MaxRiskPerTrade
	riskBasedSize := int(riskBudget / maxLoss)

	marginPerContract := calc.MarginRequirement(opp, 1)
	marginBasedSize := 0
	if marginPerContract > 0 {
		marginBasedSize = int(availableCapital * 0.5 / marginPerContract)
	}

	recommended := minInt(riskBasedSize, marginBasedSize, 10)
	if recommended < 0 {
		recommended = 0
	}

	actualRisk := maxLoss * float64(recommended)
	actualRiskPct := 0.0
	if availableCapital > 0 {
		actualRiskPct = actualRisk / availableCapital * 100
	}

	out := Sizing{
		RecommendedSize:  recommended,
		RiskBasedSize:    riskBasedSize,
		MarginBasedSize:  marginBasedSize,
		ActualRiskAmount: actualRisk,
		ActualRiskPct:    actualRiskPct,
		MarginRequired:   marginPerContract * float64(recommended),
		Reason:           "按风险预算与保证金约束取最优规模",
	}
	if actualRiskPct > s.MaxRiskPerTrade*100 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("风险超过单笔上限 (%.1f%%)", s.MaxRiskPerTrade*100))
	}
	if recommended == 0 {
		out.Warnings = append(out.Warnings, "头寸风险过高，建议缩减规模或放弃此交易")
	}
	return out
}

// AssessRiskLevel 按占用资金比例划分风险等级。
func AssessRiskLevel(r PositionRisk) RiskLevel {
	switch {
	case r.CapitalAtRiskPct <= 1:
		return RiskLow
	case r.CapitalAtRiskPct <= 3:
		return RiskMedium
	case r.CapitalAtRiskPct <= 5:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// TradeAssessment 是单笔交易风险分析的汇总结论。
type TradeAssessment struct {
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
	RiskLevel      RiskLevel      `json:"risk_level,omitempty"`
	PositionRisk   PositionRisk   `json:"position_risk"`
	Sizing         Sizing         `json:"sizing_info"`
}

// Manager 聚合计算器、规模器与监控器。
type Manager struct {
	Calc    *Calculator
	Sizer   *Sizer
	Monitor *Monitor
}

func NewManager(capital float64) *Manager {
	return &Manager{
		Calc:    NewCalculator(capital),
		Sizer:   NewSizer(),
		Monitor: NewMonitor(),
	}
}

// AnalyzeTrade 给出单笔交易的规模、风险指标与建议。
func (m *Manager) AnalyzeTrade(opp types.StrategyOpportunity, availableCapital float64) TradeAssessment {
	sizing := m.Sizer.OptimalSize(m.Calc, opp, availableCapital)
	if sizing.RecommendedSize == 0 {
		return TradeAssessment{
			Recommendation: Avoid,
			Reason:         "风险过高或无法计算适当的头寸大小",
			Sizing:         sizing,
		}
	}

	posRisk := m.Calc.PositionRisk(opp, sizing.RecommendedSize)
	level := AssessRiskLevel(posRisk)
	action, reason := recommend(posRisk, level)

	logger.Debugf("risk: %s %s 规模=%d 建议=%s", opp.Symbol, opp.Kind, sizing.RecommendedSize, action)
	return TradeAssessment{
		Recommendation: action,
		Reason:         reason,
		RiskLevel:      level,
		PositionRisk:   posRisk,
		Sizing:         sizing,
	}
}

// recommend 按固定次序生成建议：先排除高风险，再看风险收益比。
func recommend(r PositionRisk, level RiskLevel) (Recommendation, string) {
	riskReward := r.RiskRewardRatio
	if r.RiskRewardUnbounded {
		riskReward = 1e18
	}
	switch {
	case r.CapitalAtRiskPct > 5:
		return Avoid, "风险过高，建议避免此交易"
	case r.CapitalAtRiskPct > 3:
		return Caution, "风险较高，请谨慎考虑"
	case riskReward > 4:
		return Caution, "风险收益比过高"
	case level == RiskLow && riskReward <= 2:
		return StrongBuy, "低风险，良好的风险收益比"
	case level == RiskMedium && riskReward <= 3:
		return Buy, "风险可控，收益潜力良好"
	default:
		return Hold, "风险收益平衡，可以考虑"
	}
}

func minInt(vals ...int) int {
	out := vals[0]
	for _, v := range vals[1:] {
		if v < out {
			out = v
		}
	}
	return out
}
