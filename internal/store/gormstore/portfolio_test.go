package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"osprey/internal/types"
)

func newStore(t *testing.T) *PortfolioStore {
	t.Helper()
	s, err := NewPortfolioStore(filepath.Join(t.TempDir(), "db", "portfolio.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePosition() types.OpenPosition {
	return types.OpenPosition{
		Symbol:             "aapl",
		Strategy:           types.CashSecuredPut,
		Strike:             95,
		ExpiryDate:         "2025-07-18",
		Contracts:          2,
		PremiumPerContract: 1.25,
		OpenDate:           "2025-06-02",
		Greeks:             types.Greeks{Delta: -0.25, Theta: -0.03},
	}
}

func TestAddAndGetPosition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.AddPosition(ctx, samplePosition())
	assert.NoError(t, err)
	assert.Positive(t, id)

	pos, err := s.GetPosition(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "AAPL", pos.Symbol, "symbol 入库时大写")
	assert.Equal(t, types.CashSecuredPut, pos.Strategy)
	assert.Equal(t, 2, pos.Contracts)
	assert.Equal(t, "open", pos.Status)
	assert.Equal(t, -0.25, pos.Greeks.Delta)

	_, err = s.GetPosition(ctx, id+100)
	assert.Error(t, err)
}

func TestAddPosition_Defaults(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	pos := samplePosition()
	pos.Contracts = 0
	pos.OpenDate = ""
	id, err := s.AddPosition(ctx, pos)
	assert.NoError(t, err)

	got, err := s.GetPosition(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Contracts)
	assert.Equal(t, time.Now().Format("2006-01-02"), got.OpenDate)

	pos.Symbol = ""
	_, err = s.AddPosition(ctx, pos)
	assert.Error(t, err)
}

func TestClosePosition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.AddPosition(ctx, samplePosition())
	assert.NoError(t, err)

	assert.NoError(t, s.ClosePosition(ctx, id, 0.35, "2025-06-20"))
	pos, err := s.GetPosition(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "closed", pos.Status)
	assert.Equal(t, 0.35, pos.ClosePremium)
	assert.Equal(t, "2025-06-20", pos.CloseDate)

	assert.Error(t, s.ClosePosition(ctx, id+100, 0.1, ""))
}

func TestListPositions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id1, _ := s.AddPosition(ctx, samplePosition())
	msft := samplePosition()
	msft.Symbol = "MSFT"
	s.AddPosition(ctx, msft)
	assert.NoError(t, s.ClosePosition(ctx, id1, 0.2, ""))

	open, err := s.ListPositions(ctx, "open")
	assert.NoError(t, err)
	assert.Len(t, open, 1)
	assert.Equal(t, "MSFT", open[0].Symbol)

	all, err := s.ListPositions(ctx, "all")
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeletePosition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, _ := s.AddPosition(ctx, samplePosition())
	assert.NoError(t, s.DeletePosition(ctx, id))
	_, err := s.GetPosition(ctx, id)
	assert.Error(t, err)
}

func TestUpdateWheelState_PersistsHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, _ := s.AddPosition(ctx, samplePosition())

	tr1 := types.WheelTransition{ID: "t1", From: types.WheelIdle, To: types.WheelSellPut, Timestamp: time.Now()}
	assert.NoError(t, s.UpdateWheelState(ctx, id, types.WheelSellPut, tr1))

	tr2 := types.WheelTransition{ID: "t2", From: types.WheelSellPut, To: types.WheelAssigned, Timestamp: time.Now()}
	assert.NoError(t, s.UpdateWheelState(ctx, id, types.WheelAssigned, tr2))

	pos, err := s.GetPosition(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, types.WheelAssigned, pos.WheelState)
	assert.Len(t, pos.WheelHistory, 2)
	assert.Equal(t, "t1", pos.WheelHistory[0].ID)
	assert.Equal(t, types.WheelAssigned, pos.WheelHistory[1].To)

	assert.Error(t, s.UpdateWheelState(ctx, id, "exercised", types.WheelTransition{}))
	assert.Error(t, s.UpdateWheelState(ctx, id+100, types.WheelIdle, types.WheelTransition{}))
}

func TestListWheelPositions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.AddPosition(ctx, samplePosition())
	wheelPos := samplePosition()
	wheelPos.Symbol = "MSFT"
	wheelPos.WheelState = types.WheelSellPut
	s.AddPosition(ctx, wheelPos)

	out, err := s.ListWheelPositions(ctx)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "MSFT", out[0].Symbol)
}

func TestPortfolioGreeks(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id1, _ := s.AddPosition(ctx, samplePosition()) // delta -0.25 x2 张
	other := samplePosition()
	other.Symbol = "MSFT"
	other.Contracts = 1
	other.Greeks = types.Greeks{Delta: 0.3}
	s.AddPosition(ctx, other)

	g, err := s.PortfolioGreeks(ctx)
	assert.NoError(t, err)
	assert.InDelta(t, -0.25*200+0.3*100, g.TotalDelta, 1e-9)
	assert.InDelta(t, -0.03*200, g.TotalTheta, 1e-9)
	assert.InDelta(t, -50.0, g.BySymbol["AAPL"].Delta, 1e-9)

	// 平仓后不再计入
	assert.NoError(t, s.ClosePosition(ctx, id1, 0.2, ""))
	g, err = s.PortfolioGreeks(ctx)
	assert.NoError(t, err)
	assert.InDelta(t, 30.0, g.TotalDelta, 1e-9)
}

func TestPortfolioSummary(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id1, _ := s.AddPosition(ctx, samplePosition()) // 2 张 x 1.25
	s.AddPosition(ctx, samplePosition())
	assert.NoError(t, s.ClosePosition(ctx, id1, 0.35, ""))

	sum, err := s.PortfolioSummary(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, sum.OpenCount)
	assert.Equal(t, 1, sum.ClosedCount)
	// 收 250，回补 70
	assert.InDelta(t, 180.0, sum.RealizedPnL, 1e-9)
	assert.InDelta(t, 250.0, sum.TotalPremiumCollected, 1e-9)
	assert.Equal(t, 1, sum.StrategyDistribution["cash_secured_put"])
	assert.Equal(t, 1, sum.SymbolDistribution["AAPL"])
}

func TestNewPortfolioStore_EmptyPath(t *testing.T) {
	_, err := NewPortfolioStore("  ")
	assert.Error(t, err)
}
