// Package strategy 将单腿分析结果组合为策略级机会记录，并为已开仓位估算滚仓方案。
package strategy

import (
	"osprey/internal/types"
)

// Compose 按策略类型分发组合。legs 的约定顺序：
//
//	covered_call / cash_secured_put: [腿]
//	short_strangle:                  [call, put]
//	bull_put_spread:                 [short put, long put]
//	bear_call_spread:                [short call, long call]
//	iron_condor:                     [short call, long call, short put, long put]
//
// 腿数不符或不变量被违反时返回 (zero, false)，调用方按"无机会"处理。
func Compose(kind types.StrategyKind, legs []types.LegAnalysis, spot float64, daysToExpiry int) (types.StrategyOpportunity, bool) {
	switch kind {
	case types.CoveredCall:
		if len(legs) != 1 {
			return types.StrategyOpportunity{}, false
		}
		return CoveredCall(spot, legs[0], daysToExpiry, 0)
	case types.CashSecuredPut:
		if len(legs) != 1 {
			return types.StrategyOpportunity{}, false
		}
		return CashSecuredPut(spot, legs[0], daysToExpiry)
	case types.ShortStrangle:
		if len(legs) != 2 {
			return types.StrategyOpportunity{}, false
		}
		return ShortStrangle(spot, legs[0], legs[1], daysToExpiry)
	case types.BullPutSpread:
		if len(legs) != 2 {
			return types.StrategyOpportunity{}, false
		}
		return BullPutSpread(spot, legs[0], legs[1], daysToExpiry)
	case types.BearCallSpread:
		if len(legs) != 2 {
			return types.StrategyOpportunity{}, false
		}
		return BearCallSpread(spot, legs[0], legs[1], daysToExpiry)
	case types.IronCondor:
		if len(legs) != 4 {
			return types.StrategyOpportunity{}, false
		}
		return IronCondor(spot, legs[0], legs[1], legs[2], legs[3], daysToExpiry)
	}
	return types.StrategyOpportunity{}, false
}

// allValid 检查各腿分析是否可用。
func allValid(legs ...types.LegAnalysis) bool {
	for _, l := range legs {
		if !l.Valid {
			return false
		}
	}
	return true
}

// netPositionGreeks 以空头腿取负的约定聚合多腿 Greeks。
func netPositionGreeks(short, long []types.LegAnalysis) types.Greeks {
	var g types.Greeks
	for _, l := range short {
		g = g.Add(l.Greeks.Neg())
	}
	for _, l := range long {
		g = g.Add(l.Greeks)
	}
	return g
}
