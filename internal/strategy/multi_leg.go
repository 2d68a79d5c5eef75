package strategy

import (
	"math"

	"osprey/internal/types"
)

// IronCondor 组合铁鹰策略：卖出 call/put 各一腿并在两翼买入保护。
// 要求 longCall > shortCall > shortPut > longPut，否则返回"无机会"。
func IronCondor(spot float64, shortCall, longCall, shortPut, longPut types.LegAnalysis, daysToExpiry int) (types.StrategyOpportunity, bool) {
	if !allValid(shortCall, longCall, shortPut, longPut) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}

	csK, clK := shortCall.Basic.Strike, longCall.Basic.Strike
	psK, plK := shortPut.Basic.Strike, longPut.Basic.Strike
	if clK <= csK || psK <= plK || csK <= psK {
		return types.StrategyOpportunity{}, false
	}

	netCredit := (shortCall.Basic.MidPrice + shortPut.Basic.MidPrice -
		longCall.Basic.MidPrice - longPut.Basic.MidPrice) * 100

	lowerBreakeven := psK - netCredit/100
	upperBreakeven := csK + netCredit/100

	wingWidth := math.Min(clK-csK, psK-plK)
	maxProfit := netCredit
	maxLoss := wingWidth*100 - netCredit

	// 简化的盈利概率：盈利区间宽度相对股价的线性映射。
	profitZone := upperBreakeven - lowerBreakeven
	profitProb := math.Min(100, profitZone/spot*50)

	var annualized float64
	if maxLoss > 0 {
		annualized = (maxProfit / maxLoss) * 100 * (365.0 / float64(daysToExpiry))
	}

	return types.StrategyOpportunity{
		Kind:         types.IronCondor,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{ShortCall: csK, LongCall: clK, ShortPut: psK, LongPut: plK},
		WingWidth:    wingWidth,
		Returns: types.StrategyReturns{
			NetCredit:         netCredit,
			MaxProfit:         maxProfit,
			MaxLoss:           maxLoss,
			LowerBreakeven:    lowerBreakeven,
			UpperBreakeven:    upperBreakeven,
			ProfitZoneWidth:   profitZone,
			ProfitProbability: profitProb,
			AnnualizedYield:   annualized,
		},
		Probabilities: types.LegProbabilities{ProbProfitShort: profitProb},
		Greeks: netPositionGreeks(
			[]types.LegAnalysis{shortCall, shortPut},
			[]types.LegAnalysis{longCall, longPut},
		),
		Liquidity: combinedLiquidity(shortCall, shortPut),
		IVPct:     (shortCall.Basic.ImpliedVolatility + shortPut.Basic.ImpliedVolatility) / 2,
		ShortLeg:  shortPut,
	}, true
}

// ShortStrangle 组合卖出宽跨式：call 执行价需高于股价、put 低于股价。
// 盈利概率用预期波动与盈利区间的比值估算（比例启发式而非闭式 CDF），截断到 [0,100]。
func ShortStrangle(spot float64, call, put types.LegAnalysis, daysToExpiry int) (types.StrategyOpportunity, bool) {
	if !allValid(call, put) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}

	callStrike := call.Basic.Strike
	putStrike := put.Basic.Strike

	netCredit := (call.Basic.MidPrice + put.Basic.MidPrice) * 100
	upperBreakeven := callStrike + netCredit/100
	lowerBreakeven := putStrike - netCredit/100
	profitZone := upperBreakeven - lowerBreakeven

	currentIV := (call.Basic.ImpliedVolatility + put.Basic.ImpliedVolatility) / 2
	expectedMove := spot * (currentIV / 100) * math.Sqrt(float64(daysToExpiry)/365.0)

	profitProb := 50.0
	if expectedMove > 0 {
		profitProb = math.Min(100, profitZone/(2*expectedMove)*100)
	}

	// 双腿逐项求和（不取负）：该聚合形状被下游阈值依赖，保持原样。
	netGreeks := call.Greeks.Add(put.Greeks)

	var annualized float64
	if spot > 0 {
		annualized = netCredit / (spot * 100) * (365.0 / float64(daysToExpiry)) * 100
	}

	return types.StrategyOpportunity{
		Kind:         types.ShortStrangle,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{Strike: putStrike, ShortCall: callStrike, ShortPut: putStrike},
		Returns: types.StrategyReturns{
			NetCredit:         netCredit,
			MaxProfit:         netCredit,
			MaxLossUnbounded:  true,
			UpperBreakeven:    upperBreakeven,
			LowerBreakeven:    lowerBreakeven,
			ProfitZoneWidth:   profitZone,
			ProfitProbability: profitProb,
			AnnualizedYield:   annualized,
		},
		Probabilities: types.LegProbabilities{ProbProfitShort: profitProb},
		Greeks:        netGreeks,
		Liquidity:     combinedLiquidity(call, put),
		IVPct:         currentIV,
		ExpectedMove:  expectedMove,
		DeltaNeutral:  math.Abs(netGreeks.Delta) < 0.1,
		ShortLeg:      put,
	}, true
}

// combinedLiquidity 合并双空头腿的流动性：可成交量受较弱一腿约束。
func combinedLiquidity(a, b types.LegAnalysis) types.Liquidity {
	combinedMid := a.Basic.MidPrice + b.Basic.MidPrice
	combinedSpread := a.Liquidity.BidAskSpread + b.Liquidity.BidAskSpread
	var spreadPct float64
	if combinedMid > 0 {
		spreadPct = combinedSpread / combinedMid * 100
	}
	return types.Liquidity{
		BidAskSpread:    combinedSpread,
		BidAskSpreadPct: spreadPct,
		Volume:          minInt64(a.Liquidity.Volume, b.Liquidity.Volume),
		OpenInterest:    minInt64(a.Liquidity.OpenInterest, b.Liquidity.OpenInterest),
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
