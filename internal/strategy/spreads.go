package strategy

import (
	"math"

	"osprey/internal/types"
)

// BullPutSpread 组合牛市看跌价差：卖出较高执行价 Put、买入较低执行价 Put。
// short strike 必须高于 long strike，否则返回"无机会"。
func BullPutSpread(spot float64, shortPut, longPut types.LegAnalysis, daysToExpiry int) (types.StrategyOpportunity, bool) {
	if !allValid(shortPut, longPut) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}

	shortStrike := shortPut.Basic.Strike
	longStrike := longPut.Basic.Strike
	if shortStrike <= longStrike {
		return types.StrategyOpportunity{}, false
	}

	netCredit := (shortPut.Basic.MidPrice - longPut.Basic.MidPrice) * 100
	spreadWidth := (shortStrike - longStrike) * 100
	maxProfit := netCredit
	maxLoss := spreadWidth - netCredit
	breakeven := shortStrike - netCredit/100

	returnOnRisk, annualized := riskReturns(maxProfit, maxLoss, daysToExpiry)
	profitProb := spreadProfitProb(spot, shortPut.Basic.ImpliedVolatility, daysToExpiry, spot-breakeven)

	return types.StrategyOpportunity{
		Kind:         types.BullPutSpread,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{Strike: shortStrike, ShortPut: shortStrike, LongPut: longStrike},
		Premium:      netCredit / 100,
		Returns: types.StrategyReturns{
			NetCredit:         netCredit,
			MaxProfit:         maxProfit,
			MaxLoss:           maxLoss,
			Breakeven:         breakeven,
			ReturnOnRisk:      returnOnRisk,
			AnnualizedYield:   annualized,
			SpreadWidth:       spreadWidth,
			ProfitProbability: profitProb,
		},
		Probabilities: types.LegProbabilities{ProbProfitShort: profitProb},
		Greeks:        shortPut.Greeks,
		Liquidity:     shortPut.Liquidity,
		IVPct:         shortPut.Basic.ImpliedVolatility,
		ShortLeg:      shortPut,
	}, true
}

// BearCallSpread 组合熊市看涨价差：卖出较低执行价 Call、买入较高执行价 Call。
// long strike 必须高于 short strike，否则返回"无机会"。
func BearCallSpread(spot float64, shortCall, longCall types.LegAnalysis, daysToExpiry int) (types.StrategyOpportunity, bool) {
	if !allValid(shortCall, longCall) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}

	shortStrike := shortCall.Basic.Strike
	longStrike := longCall.Basic.Strike
	if longStrike <= shortStrike {
		return types.StrategyOpportunity{}, false
	}

	netCredit := (shortCall.Basic.MidPrice - longCall.Basic.MidPrice) * 100
	spreadWidth := (longStrike - shortStrike) * 100
	maxProfit := netCredit
	maxLoss := spreadWidth - netCredit
	breakeven := shortStrike + netCredit/100

	returnOnRisk, annualized := riskReturns(maxProfit, maxLoss, daysToExpiry)
	profitProb := spreadProfitProb(spot, shortCall.Basic.ImpliedVolatility, daysToExpiry, breakeven-spot)

	return types.StrategyOpportunity{
		Kind:         types.BearCallSpread,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{Strike: shortStrike, ShortCall: shortStrike, LongCall: longStrike},
		Premium:      netCredit / 100,
		Returns: types.StrategyReturns{
			NetCredit:         netCredit,
			MaxProfit:         maxProfit,
			MaxLoss:           maxLoss,
			Breakeven:         breakeven,
			ReturnOnRisk:      returnOnRisk,
			AnnualizedYield:   annualized,
			SpreadWidth:       spreadWidth,
			ProfitProbability: profitProb,
		},
		Probabilities: types.LegProbabilities{ProbProfitShort: profitProb},
		Greeks:        shortCall.Greeks,
		Liquidity:     shortCall.Liquidity,
		IVPct:         shortCall.Basic.ImpliedVolatility,
		ShortLeg:      shortCall,
	}, true
}

func riskReturns(maxProfit, maxLoss float64, daysToExpiry int) (returnOnRisk, annualized float64) {
	if maxLoss > 0 {
		returnOnRisk = maxProfit / maxLoss * 100
		annualized = returnOnRisk * (365.0 / float64(daysToExpiry))
	}
	return returnOnRisk, annualized
}

// spreadProfitProb 用盈亏平衡点到股价的距离相对预期波动的线性映射估算盈利概率，
// 区间固定在 [5, 95]。同为启发式，下游评分依赖其形状。
func spreadProfitProb(spot, ivPct float64, daysToExpiry int, distance float64) float64 {
	expectedMove := spot * (ivPct / 100) * math.Sqrt(float64(daysToExpiry)/365.0)
	if expectedMove <= 0 {
		return 50
	}
	return math.Min(95, math.Max(5, 50+distance/expectedMove*30))
}
