package strategy

import (
	"osprey/internal/types"
)

// CoveredCall 组合备兑看涨策略。shares<=0 时按 100 股（一张合约）计。
func CoveredCall(spot float64, call types.LegAnalysis, daysToExpiry, shares int) (types.StrategyOpportunity, bool) {
	if !allValid(call) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}
	if shares <= 0 {
		shares = 100
	}

	strike := call.Basic.Strike
	premium := call.Basic.MidPrice

	maxProfit := (strike - spot + premium) * float64(shares)
	breakeven := spot - premium

	var yieldIfUnchanged, yieldIfCalled, annualized, protection float64
	if spot > 0 {
		yieldIfUnchanged = premium / spot * 100
		yieldIfCalled = (strike - spot + premium) / spot * 100
		annualized = yieldIfCalled * (365.0 / float64(daysToExpiry))
		protection = premium / spot * 100
	}

	return types.StrategyOpportunity{
		Kind:         types.CoveredCall,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{Strike: strike},
		Premium:      premium,
		Shares:       shares,
		Returns: types.StrategyReturns{
			MaxProfit: maxProfit,
			// 理论上下行无界（已持股），以当前股票市值作为参考最大损失。
			MaxLoss:            spot * float64(shares),
			Breakeven:          breakeven,
			YieldIfUnchanged:   yieldIfUnchanged,
			YieldIfCalled:      yieldIfCalled,
			AnnualizedYield:    annualized,
			DownsideProtection: protection,
		},
		Probabilities: call.Probabilities,
		Greeks:        call.Greeks,
		Liquidity:     call.Liquidity,
		IVPct:         call.Basic.ImpliedVolatility,
		ShortLeg:      call,
	}, true
}

// CashSecuredPut 组合现金担保看跌策略（按一张合约计）。
func CashSecuredPut(spot float64, put types.LegAnalysis, daysToExpiry int) (types.StrategyOpportunity, bool) {
	if !allValid(put) || spot <= 0 || daysToExpiry <= 0 {
		return types.StrategyOpportunity{}, false
	}

	strike := put.Basic.Strike
	premium := put.Basic.MidPrice

	maxProfit := premium * 100
	maxLoss := (strike - premium) * 100
	breakeven := strike - premium
	cashRequired := strike * 100

	var yieldOnCash, annualized float64
	if cashRequired > 0 {
		yieldOnCash = (premium * 100 / cashRequired) * 100
		annualized = yieldOnCash * (365.0 / float64(daysToExpiry))
	}

	netCost := strike - premium
	var discount float64
	if spot > 0 {
		discount = (spot - netCost) / spot * 100
	}

	return types.StrategyOpportunity{
		Kind:         types.CashSecuredPut,
		StockPrice:   spot,
		DaysToExpiry: daysToExpiry,
		Strikes:      types.Strikes{Strike: strike},
		Premium:      premium,
		Returns: types.StrategyReturns{
			MaxProfit:         maxProfit,
			MaxLoss:           maxLoss,
			Breakeven:         breakeven,
			CashRequired:      cashRequired,
			YieldOnCash:       yieldOnCash,
			AnnualizedYield:   annualized,
			NetCostIfAssigned: netCost,
			DiscountToCurrent: discount,
		},
		Probabilities: put.Probabilities,
		Greeks:        put.Greeks,
		Liquidity:     put.Liquidity,
		IVPct:         put.Basic.ImpliedVolatility,
		ShortLeg:      put,
	}, true
}
