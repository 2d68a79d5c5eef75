package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osprey/internal/types"
)

func sampleQuote() types.OptionQuote {
	return types.OptionQuote{
		ContractSymbol:    "AAPL240119C00190000",
		Side:              types.Call,
		Strike:            190,
		LastPrice:         3.4,
		Bid:               3.3,
		Ask:               3.5,
		Volume:            1200,
		OpenInterest:      5400,
		ImpliedVolatility: 0.28,
	}
}

func TestAnalyzeLeg(t *testing.T) {
	a := NewAnalyzer(0.05)
	leg := a.AnalyzeLeg(sampleQuote(), 185, 30)

	assert.True(t, leg.Valid)
	assert.Equal(t, 190.0, leg.Basic.Strike)
	assert.InDelta(t, 3.4, leg.Basic.MidPrice, 1e-9, "双边报价有效时取中间价")
	assert.InDelta(t, 28.0, leg.Basic.ImpliedVolatility, 1e-9, "IV 以百分数输出")

	assert.Greater(t, leg.Pricing.TheoreticalPrice, 0.0)
	assert.Zero(t, leg.Pricing.IntrinsicValue, "虚值 call 无内在价值")
	assert.InDelta(t, leg.Basic.MidPrice, leg.Pricing.TimeValue, 1e-9)
	assert.InDelta(t, 185.0/190.0, leg.Pricing.Moneyness, 1e-9)

	assert.Greater(t, leg.Greeks.Delta, 0.0)
	assert.Less(t, leg.Greeks.Delta, 0.5, "虚值 call 的 delta 低于 0.5")

	assert.Greater(t, leg.Probabilities.ProbProfitShort, 50.0)
	assert.LessOrEqual(t, leg.Probabilities.ProbProfitShort, 100.0)
	assert.Less(t, leg.Probabilities.ExpectedMoveDown, 185.0)
	assert.Greater(t, leg.Probabilities.ExpectedMoveUp, 185.0)

	assert.True(t, leg.Returns.MaxLossUnbounded, "卖出裸 call 的损失无上限")
	assert.InDelta(t, 193.4, leg.Returns.Breakeven, 1e-9)

	assert.InDelta(t, 0.2, leg.Liquidity.BidAskSpread, 1e-9)
	assert.Equal(t, int64(1200), leg.Liquidity.Volume)
}

func TestAnalyzeLeg_PutReturns(t *testing.T) {
	a := NewAnalyzer(0.05)
	q := sampleQuote()
	q.Side = types.Put
	q.Strike = 180

	leg := a.AnalyzeLeg(q, 185, 30)
	assert.True(t, leg.Valid)
	assert.False(t, leg.Returns.MaxLossUnbounded)
	assert.InDelta(t, 180-3.4, leg.Returns.MaxLoss, 1e-9)
	assert.InDelta(t, 180-3.4, leg.Returns.Breakeven, 1e-9)
	assert.InDelta(t, 180.0/185.0, leg.Pricing.Moneyness, 1e-9)
}

func TestAnalyzeLeg_InvalidInputs(t *testing.T) {
	a := NewAnalyzer(0.05)

	q := sampleQuote()
	q.Strike = 0
	assert.False(t, a.AnalyzeLeg(q, 185, 30).Valid, "缺失执行价按无机会处理")

	assert.False(t, a.AnalyzeLeg(sampleQuote(), 0, 30).Valid)
	assert.False(t, a.AnalyzeLeg(sampleQuote(), 185, -1).Valid)
}

func TestAnalyzeLeg_FallsBackToLastPrice(t *testing.T) {
	a := NewAnalyzer(0.05)
	q := sampleQuote()
	q.Bid, q.Ask = 0, 0

	leg := a.AnalyzeLeg(q, 185, 30)
	assert.True(t, leg.Valid)
	assert.InDelta(t, q.LastPrice, leg.Basic.MidPrice, 1e-9)
}

func TestAnalyzeChain_SkipsBadLegs(t *testing.T) {
	a := NewAnalyzer(0.05)
	good := sampleQuote()
	bad := sampleQuote()
	bad.Strike = 0

	chain := a.AnalyzeChain("AAPL", "2024-01-19", []types.OptionQuote{good, bad}, nil, 185, 30)
	assert.Len(t, chain.Calls, 1)
	assert.Empty(t, chain.Puts)
	assert.Equal(t, "AAPL", chain.Symbol)
}
