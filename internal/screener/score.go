package screener

import (
	"math"
	"sort"

	"osprey/internal/types"
)

// Score 对单个策略机会计算 0-100 综合得分。
// 构成：年化收益 0-30、盈利概率 0-25、流动性 0-20、风险收益比 0-15、Delta 0-10。
func Score(opp types.StrategyOpportunity) float64 {
	score := 0.0

	if opp.Returns.AnnualizedYield > 0 {
		score += math.Min(30, opp.Returns.AnnualizedYield*2)
	}

	score += math.Min(25, opp.Probabilities.ProbProfitShort*0.25)

	liq := opp.Liquidity
	if liq.Volume >= 100 && liq.OpenInterest >= 500 {
		score += 10
	} else if liq.Volume >= 50 && liq.OpenInterest >= 200 {
		score += 5
	}
	if liq.BidAskSpreadPct < 5 {
		score += 10
	} else if liq.BidAskSpreadPct < 10 {
		score += 5
	}

	if !opp.Returns.MaxLossUnbounded && opp.Returns.MaxLoss > 0 {
		riskReward := opp.Returns.MaxProfit / opp.Returns.MaxLoss
		score += math.Min(15, riskReward*30)
	}

	delta := math.Abs(opp.Greeks.Delta)
	if delta >= 0.15 && delta <= 0.35 {
		score += 10
	} else if delta >= 0.1 && delta <= 0.5 {
		score += 5
	}

	return score
}

// Rank 填充得分并按得分降序排序；同分保持输入顺序。
func Rank(opps []types.StrategyOpportunity) []types.StrategyOpportunity {
	ranked := make([]types.StrategyOpportunity, len(opps))
	copy(ranked, opps)
	for i := range ranked {
		ranked[i].Score = Score(ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// LiquidityScore 独立评估期权流动性，0-100。
// 成交量 0-40，持仓量 0-40，买卖价差 0-20。
func LiquidityScore(volume, openInterest int64, bidAskSpreadPct float64) float64 {
	score := 0.0

	switch {
	case volume >= 1000:
		score += 40
	case volume >= 500:
		score += 30
	case volume >= 200:
		score += 20
	case volume >= 100:
		score += 10
	case volume >= 50:
		score += 5
	}

	switch {
	case openInterest >= 5000:
		score += 40
	case openInterest >= 2000:
		score += 30
	case openInterest >= 1000:
		score += 20
	case openInterest >= 500:
		score += 10
	case openInterest >= 100:
		score += 5
	}

	switch {
	case bidAskSpreadPct <= 2:
		score += 20
	case bidAskSpreadPct <= 5:
		score += 15
	case bidAskSpreadPct <= 10:
		score += 10
	case bidAskSpreadPct <= 15:
		score += 5
	}

	return score
}

// RiskScore 独立评估风险状况，0-100。
// 风险收益比 0-40，盈利概率 0-40，最大损失额度 0-20。
func RiskScore(maxLoss, maxProfit, probProfit float64) float64 {
	score := 0.0

	if maxLoss > 0 && maxProfit > 0 {
		ratio := maxLoss / maxProfit
		switch {
		case ratio <= 2:
			score += 40
		case ratio <= 3:
			score += 30
		case ratio <= 4:
			score += 20
		case ratio <= 5:
			score += 10
		}
	}

	switch {
	case probProfit >= 80:
		score += 40
	case probProfit >= 70:
		score += 30
	case probProfit >= 60:
		score += 20
	case probProfit >= 50:
		score += 10
	}

	switch {
	case maxLoss <= 500:
		score += 20
	case maxLoss <= 1000:
		score += 15
	case maxLoss <= 2000:
		score += 10
	case maxLoss <= 5000:
		score += 5
	}

	return score
}
