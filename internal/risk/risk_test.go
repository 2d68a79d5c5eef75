package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osprey/internal/types"
)

func spreadOpp() types.StrategyOpportunity {
	return types.StrategyOpportunity{
		Kind:         types.BullPutSpread,
		Symbol:       "AAPL",
		StockPrice:   100,
		DaysToExpiry: 30,
		Strikes:      types.Strikes{ShortPut: 95, LongPut: 90},
		WingWidth:    5,
		Returns: types.StrategyReturns{
			NetCredit: 70,
			MaxProfit: 70,
			MaxLoss:   430,
		},
	}
}

func TestNewCalculator_DefaultCapital(t *testing.T) {
	assert.Equal(t, 100000.0, NewCalculator(0).Capital)
	assert.Equal(t, 100000.0, NewCalculator(-5).Capital)
	assert.Equal(t, 50000.0, NewCalculator(50000).Capital)
}

func TestMarginRequirement(t *testing.T) {
	c := NewCalculator(100000)

	cc := types.StrategyOpportunity{Kind: types.CoveredCall, StockPrice: 100}
	assert.Equal(t, 10000.0, c.MarginRequirement(cc, 1))
	assert.Equal(t, 30000.0, c.MarginRequirement(cc, 3))

	csp := types.StrategyOpportunity{Kind: types.CashSecuredPut, StockPrice: 100, Strikes: types.Strikes{Strike: 95}}
	assert.Equal(t, 9500.0, c.MarginRequirement(csp, 1))

	// put 腿 20% 与现价 20% 取大
	strangle := types.StrategyOpportunity{Kind: types.ShortStrangle, StockPrice: 100, Strikes: types.Strikes{ShortPut: 110, ShortCall: 120}}
	assert.Equal(t, 2200.0, c.MarginRequirement(strangle, 1))
	strangle.Strikes.ShortPut = 90
	assert.Equal(t, 2000.0, c.MarginRequirement(strangle, 1))

	condor := types.StrategyOpportunity{Kind: types.IronCondor, StockPrice: 100, WingWidth: 5}
	assert.Equal(t, 500.0, c.MarginRequirement(condor, 1))
	condor.WingWidth = 0
	assert.Equal(t, 500.0, c.MarginRequirement(condor, 1), "缺失翼宽时按 5 估算")

	spread := spreadOpp()
	assert.Equal(t, 2000.0, c.MarginRequirement(spread, 1), "价差回退到 20% 现价")
}

func TestPositionRisk(t *testing.T) {
	c := NewCalculator(100000)
	r := c.PositionRisk(spreadOpp(), 2)

	assert.Equal(t, 2, r.PositionSize)
	assert.Equal(t, 140.0, r.MaxProfit)
	assert.Equal(t, 860.0, r.MaxLoss)
	assert.InDelta(t, 0.86, r.CapitalAtRiskPct, 1e-9)
	assert.InDelta(t, 860.0/140.0, r.RiskRewardRatio, 1e-9)
	assert.False(t, r.RiskRewardUnbounded)
	assert.InDelta(t, 860.0/1000.0, r.BreakEvenSuccessRate, 1e-9)
	assert.Equal(t, 4000.0, r.MarginRequirement)
	assert.InDelta(t, 140.0/4000.0*100, r.ReturnOnMargin, 1e-9)
}

func TestPositionRisk_UnboundedProxies(t *testing.T) {
	c := NewCalculator(100000)

	cc := types.StrategyOpportunity{
		Kind:       types.CoveredCall,
		StockPrice: 100,
		Returns:    types.StrategyReturns{MaxProfit: 700, MaxLossUnbounded: true},
	}
	r := c.PositionRisk(cc, 1)
	assert.Equal(t, 10000.0, r.MaxLoss, "备兑按一倍股价代理")

	strangle := cc
	strangle.Kind = types.ShortStrangle
	r = c.PositionRisk(strangle, 1)
	assert.Equal(t, 30000.0, r.MaxLoss, "宽跨式按三倍股价代理")

	zeroProfit := spreadOpp()
	zeroProfit.Returns.MaxProfit = 0
	r = c.PositionRisk(zeroProfit, 1)
	assert.True(t, r.RiskRewardUnbounded)
}

func TestOptimalSize(t *testing.T) {
	calc := NewCalculator(100000)
	sizer := NewSizer()

	// 风险预算 100000*0.02=2000，2000/430=4 张；
	// 保证金 100000*0.5/2000=25 张；取 min(4, 25, 10)=4
	s := sizer.OptimalSize(calc, spreadOpp(), 100000)
	assert.Equal(t, 4, s.RecommendedSize)
	assert.Equal(t, 4, s.RiskBasedSize)
	assert.Equal(t, 25, s.MarginBasedSize)
	assert.Equal(t, 1720.0, s.ActualRiskAmount)
	assert.InDelta(t, 1.72, s.ActualRiskPct, 1e-9)
	assert.Equal(t, 8000.0, s.MarginRequired)
	assert.Empty(t, s.Warnings)
}

func TestOptimalSize_CapAtTen(t *testing.T) {
	calc := NewCalculator(1000000)
	sizer := NewSizer()

	opp := spreadOpp()
	opp.Returns.MaxLoss = 100
	s := sizer.OptimalSize(calc, opp, 1000000)
	assert.Equal(t, 10, s.RecommendedSize)
}

func TestOptimalSize_Degenerate(t *testing.T) {
	calc := NewCalculator(100000)
	sizer := NewSizer()

	unbounded := spreadOpp()
	unbounded.Returns.MaxLossUnbounded = true
	s := sizer.OptimalSize(calc, unbounded, 100000)
	assert.Equal(t, 0, s.RecommendedSize)

	// 资金太少连一张都放不下
	s = sizer.OptimalSize(calc, spreadOpp(), 5000)
	assert.Equal(t, 0, s.RecommendedSize)
	assert.NotEmpty(t, s.Warnings)
}

func TestAssessRiskLevel(t *testing.T) {
	assert.Equal(t, RiskLow, AssessRiskLevel(PositionRisk{CapitalAtRiskPct: 0.8}))
	assert.Equal(t, RiskMedium, AssessRiskLevel(PositionRisk{CapitalAtRiskPct: 2.5}))
	assert.Equal(t, RiskHigh, AssessRiskLevel(PositionRisk{CapitalAtRiskPct: 4.2}))
	assert.Equal(t, RiskExtreme, AssessRiskLevel(PositionRisk{CapitalAtRiskPct: 8}))
}

func TestAnalyzeTrade(t *testing.T) {
	m := NewManager(100000)

	// 4 张价差：占用 1.72%，风险收益比 6.1 → CAUTION
	out := m.AnalyzeTrade(spreadOpp(), 100000)
	assert.Equal(t, Caution, out.Recommendation)
	assert.Equal(t, RiskMedium, out.RiskLevel)
	assert.Equal(t, 4, out.Sizing.RecommendedSize)

	// 无上限损失直接 AVOID
	unbounded := spreadOpp()
	unbounded.Returns.MaxLossUnbounded = true
	out = m.AnalyzeTrade(unbounded, 100000)
	assert.Equal(t, Avoid, out.Recommendation)
	assert.Equal(t, "风险过高或无法计算适当的头寸大小", out.Reason)
}

func TestRecommendOrdering(t *testing.T) {
	cases := []struct {
		name string
		r    PositionRisk
		lv   RiskLevel
		want Recommendation
	}{
		{"超限回避", PositionRisk{CapitalAtRiskPct: 6, RiskRewardRatio: 1}, RiskExtreme, Avoid},
		{"较高谨慎", PositionRisk{CapitalAtRiskPct: 4, RiskRewardRatio: 1}, RiskHigh, Caution},
		{"比值过高谨慎", PositionRisk{CapitalAtRiskPct: 0.5, RiskRewardRatio: 5}, RiskLow, Caution},
		{"低风险强买", PositionRisk{CapitalAtRiskPct: 0.5, RiskRewardRatio: 1.5}, RiskLow, StrongBuy},
		{"中风险买入", PositionRisk{CapitalAtRiskPct: 2, RiskRewardRatio: 2.5}, RiskMedium, Buy},
		{"其余持有", PositionRisk{CapitalAtRiskPct: 2, RiskRewardRatio: 3.5}, RiskMedium, Hold},
		{"无界比值谨慎", PositionRisk{CapitalAtRiskPct: 0.5, RiskRewardUnbounded: true}, RiskLow, Caution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := recommend(tc.r, tc.lv)
			assert.Equal(t, tc.want, got)
		})
	}
}
