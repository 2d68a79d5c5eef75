package risk

import (
	"fmt"
	"math"
	"time"

	"osprey/internal/types"
)

// 正态分位数常量，置信度 95% / 99%。
const (
	z95 = 1.6448536269514722
	z99 = 2.3263478740408408
)

// PortfolioEntry 是组合风险计算的单头寸输入。
type PortfolioEntry struct {
	Symbol string       `json:"symbol"`
	Risk   PositionRisk `json:"risk"`
}

// PortfolioRisk 汇总组合级风险指标。
type PortfolioRisk struct {
	TotalPositions         int     `json:"total_positions"`
	TotalMaxProfit         float64 `json:"total_max_profit"`
	TotalMaxLoss           float64 `json:"total_max_loss"`
	AdjustedMaxLoss        float64 `json:"adjusted_max_loss"`
	TotalMarginRequirement float64 `json:"total_margin_requirement"`
	PortfolioRiskPct       float64 `json:"portfolio_risk_pct"`
	ReturnPotentialPct     float64 `json:"portfolio_return_potential_pct"`
	DiversificationRatio   float64 `json:"diversification_ratio"`
	MarginUtilizationPct   float64 `json:"margin_utilization_pct"`
	VaR95                  float64 `json:"var_95"`
	VaR99                  float64 `json:"var_99"`
	ExpectedShortfall      float64 `json:"expected_shortfall"`
}

// PortfolioRisk 计算组合风险。最大损失按 80% 相关性折算后计入风险占比。
func (c *Calculator) PortfolioRisk(entries []PortfolioEntry) PortfolioRisk {
	if len(entries) == 0 {
		return PortfolioRisk{}
	}

	var totalProfit, totalLoss, totalMargin float64
	symbols := make(map[string]bool)
	losses := make([]float64, 0, len(entries))
	for _, e := range entries {
		totalProfit += e.Risk.MaxProfit
		totalLoss += e.Risk.MaxLoss
		totalMargin += e.Risk.MarginRequirement
		symbols[e.Symbol] = true
		losses = append(losses, e.Risk.MaxLoss)
	}

	const correlationAdjustment = 0.8
	adjustedLoss := totalLoss * correlationAdjustment

	out := PortfolioRisk{
		TotalPositions:         len(entries),
		TotalMaxProfit:         totalProfit,
		TotalMaxLoss:           totalLoss,
		AdjustedMaxLoss:        adjustedLoss,
		TotalMarginRequirement: totalMargin,
		DiversificationRatio:   float64(len(symbols)) / float64(len(entries)),
	}
	if c.Capital > 0 {
		out.PortfolioRiskPct = adjustedLoss / c.Capital * 100
		out.ReturnPotentialPct = totalProfit / c.Capital * 100
		out.MarginUtilizationPct = totalMargin / c.Capital * 100
	}

	out.VaR95, out.VaR99, out.ExpectedShortfall = valueAtRisk(losses, 0.95)
	return out
}

// valueAtRisk 假设损失呈正态分布的参数法 VaR。
// 单头寸组合以均值 20% 代替标准差。
func valueAtRisk(losses []float64, confidence float64) (var95, var99, es float64) {
	if len(losses) == 0 {
		return 0, 0, 0
	}

	mean := 0.0
	for _, l := range losses {
		mean += l
	}
	mean /= float64(len(losses))

	std := mean * 0.2
	if len(losses) > 1 {
		variance := 0.0
		for _, l := range losses {
			variance += (l - mean) * (l - mean)
		}
		std = math.Sqrt(variance / float64(len(losses)))
	}

	var95 = z95*std + mean
	var99 = z99*std + mean

	zc := z95
	if confidence >= 0.99 {
		zc = z99
	}
	es = mean + std*stdNormPDF(zc)/(1-confidence)
	return var95, var99, es
}

func stdNormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// Monitor 持有组合风控阈值并产出违规与预警。
type Monitor struct {
	MaxSinglePositionRisk float64
	MaxPortfolioRisk      float64
	MaxMarginUtilization  float64
	MaxConcentration      float64
	MinLiquidityScore     float64
}

func NewMonitor() *Monitor {
	return &Monitor{
		MaxSinglePositionRisk: 0.02,
		MaxPortfolioRisk:      0.1,
		MaxMarginUtilization:  0.5,
		MaxConcentration:      0.25,
		MinLiquidityScore:     60,
	}
}

// CheckViolations 检查组合级风险违规。
func (m *Monitor) CheckViolations(p PortfolioRisk) []string {
	var violations []string
	if p.PortfolioRiskPct > m.MaxPortfolioRisk*100 {
		violations = append(violations, fmt.Sprintf("投资组合风险 (%.1f%%) 超过限制 (%.1f%%)", p.PortfolioRiskPct, m.MaxPortfolioRisk*100))
	}
	if p.MarginUtilizationPct > m.MaxMarginUtilization*100 {
		violations = append(violations, fmt.Sprintf("保证金使用率 (%.1f%%) 超过限制 (%.1f%%)", p.MarginUtilizationPct, m.MaxMarginUtilization*100))
	}
	if p.TotalPositions > 0 && p.DiversificationRatio < 0.5 {
		violations = append(violations, fmt.Sprintf("投资组合集中度过高 (多样化比率: %.2f)", p.DiversificationRatio))
	}
	return violations
}

// PositionAlerts 对在持头寸生成到期与 Delta 预警。
func (m *Monitor) PositionAlerts(now time.Time, positions []types.OpenPosition) []string {
	var alerts []string
	for _, pos := range positions {
		if dte, ok := pos.DaysToExpiry(now); ok {
			if dte <= 3 {
				alerts = append(alerts, fmt.Sprintf("%s 期权将在 %d 天内到期", pos.Symbol, dte))
			} else if dte <= 7 {
				alerts = append(alerts, fmt.Sprintf("%s 期权将在一周内到期，请关注", pos.Symbol))
			}
		}
		if delta := math.Abs(pos.Greeks.Delta); delta > 0.5 {
			alerts = append(alerts, fmt.Sprintf("%s Delta值较高 (%.3f)，风险增加", pos.Symbol, delta))
		}
	}
	return alerts
}

// PortfolioAssessment 是组合风险分析的汇总结论。
type PortfolioAssessment struct {
	Metrics    PortfolioRisk `json:"portfolio_metrics"`
	Violations []string      `json:"risk_violations"`
	Alerts     []string      `json:"risk_alerts"`
	Overall    RiskLevel     `json:"overall_risk_level"`
}

// AnalyzePortfolio 产出组合级指标、违规清单与在持头寸预警。
func (m *Manager) AnalyzePortfolio(entries []PortfolioEntry, positions []types.OpenPosition) PortfolioAssessment {
	metrics := m.Calc.PortfolioRisk(entries)
	return PortfolioAssessment{
		Metrics:    metrics,
		Violations: m.Monitor.CheckViolations(metrics),
		Alerts:     m.Monitor.PositionAlerts(time.Now(), positions),
		Overall:    overallRisk(metrics),
	}
}

// overallRisk 的分档比单头寸宽松：组合分散后容忍更高占比。
func overallRisk(p PortfolioRisk) RiskLevel {
	switch {
	case p.PortfolioRiskPct <= 3:
		return RiskLow
	case p.PortfolioRiskPct <= 7:
		return RiskMedium
	case p.PortfolioRiskPct <= 12:
		return RiskHigh
	default:
		return RiskExtreme
	}
}
