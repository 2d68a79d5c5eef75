// Package visual 用 go-echarts 生成策略盈亏图与筛选结果图表。
package visual

import (
	"math"

	"osprey/internal/types"
)

// PayoffPoint 是到期盈亏曲线上的一个采样点（每股）。
type PayoffPoint struct {
	Price float64
	PnL   float64
}

// PayoffCurve 在 [0.7S, 1.3S] 上按 121 个点采样到期盈亏。
func PayoffCurve(opp types.StrategyOpportunity) []PayoffPoint {
	spot := opp.StockPrice
	if spot <= 0 {
		return nil
	}
	const steps = 120
	lo, hi := spot*0.7, spot*1.3
	out := make([]PayoffPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		price := lo + (hi-lo)*float64(i)/steps
		out = append(out, PayoffPoint{Price: round(price, 2), PnL: round(payoffAt(opp, price), 4)})
	}
	return out
}

// payoffAt 计算到期时每股盈亏。多腿策略的 NetCredit 按合约计，先折回每股。
func payoffAt(opp types.StrategyOpportunity, price float64) float64 {
	credit := opp.Returns.NetCredit / 100
	switch opp.Kind {
	case types.CoveredCall:
		// 持有正股 + 卖出 call
		return math.Min(price, opp.Strikes.Strike) - opp.StockPrice + opp.Premium
	case types.CashSecuredPut, types.ShortPut:
		return opp.Premium - math.Max(opp.Strikes.Strike-price, 0)
	case types.ShortCall:
		return opp.Premium - math.Max(price-opp.Strikes.Strike, 0)
	case types.ShortStrangle:
		return credit - math.Max(opp.Strikes.ShortPut-price, 0) - math.Max(price-opp.Strikes.ShortCall, 0)
	case types.IronCondor:
		return credit -
			math.Max(opp.Strikes.ShortPut-price, 0) + math.Max(opp.Strikes.LongPut-price, 0) -
			math.Max(price-opp.Strikes.ShortCall, 0) + math.Max(price-opp.Strikes.LongCall, 0)
	case types.BullPutSpread:
		return credit - math.Max(opp.Strikes.ShortPut-price, 0) + math.Max(opp.Strikes.LongPut-price, 0)
	case types.BearCallSpread:
		return credit - math.Max(price-opp.Strikes.ShortCall, 0) + math.Max(price-opp.Strikes.LongCall, 0)
	}
	return 0
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
