package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"osprey/internal/types"
)

func TestPrice_PutCallParity(t *testing.T) {
	s, k, tt, r, sigma := 100.0, 105.0, 0.25, 0.05, 0.3
	call := Price(s, k, tt, r, sigma, types.Call)
	put := Price(s, k, tt, r, sigma, types.Put)

	// C - P = S - K·e^{-rT}
	parity := s - k*math.Exp(-r*tt)
	assert.InDelta(t, parity, call-put, 1e-9)
}

func TestPrice_DegeneratesToIntrinsic(t *testing.T) {
	t.Run("T=0 ITM call", func(t *testing.T) {
		assert.InDelta(t, 10.0, Price(110, 100, 0, 0.05, 0.3, types.Call), 1e-12)
	})
	t.Run("T=0 OTM put", func(t *testing.T) {
		assert.Zero(t, Price(110, 100, 0, 0.05, 0.3, types.Put))
	})
	t.Run("sigma=0", func(t *testing.T) {
		assert.InDelta(t, 5.0, Price(95, 100, 0.1, 0.05, 0, types.Put), 1e-12)
	})
}

func TestPrice_ConvergesToIntrinsicNearExpiry(t *testing.T) {
	s, k := 110.0, 100.0
	intrinsic := Intrinsic(s, k, types.Call)
	prev := math.Inf(1)
	for _, days := range []float64{30, 10, 3, 1, 0.1} {
		p := Price(s, k, days/365.0, 0.05, 0.3, types.Call)
		assert.GreaterOrEqual(t, p, intrinsic-1e-9)
		assert.LessOrEqual(t, p, prev+1e-9, "期限缩短时价格应单调向内在价值收敛")
		prev = p
	}
}

func TestComputeGreeks_Bounds(t *testing.T) {
	g := ComputeGreeks(100, 100, 30.0/365.0, 0.05, 0.3, types.Call)
	assert.Greater(t, g.Delta, 0.0)
	assert.Less(t, g.Delta, 1.0)
	assert.Greater(t, g.Gamma, 0.0)
	assert.Less(t, g.Theta, 0.0)
	assert.Greater(t, g.Vega, 0.0)
	assert.Greater(t, g.Rho, 0.0)

	p := ComputeGreeks(100, 100, 30.0/365.0, 0.05, 0.3, types.Put)
	assert.Less(t, p.Delta, 0.0)
	assert.Greater(t, p.Delta, -1.0)
	assert.Less(t, p.Rho, 0.0)
	// gamma 与 vega 对 call/put 相同
	assert.InDelta(t, g.Gamma, p.Gamma, 1e-12)
	assert.InDelta(t, g.Vega, p.Vega, 1e-12)
}

func TestComputeGreeks_AtExpiry(t *testing.T) {
	itm := ComputeGreeks(110, 100, 0, 0.05, 0.3, types.Call)
	assert.Equal(t, 1.0, itm.Delta)
	assert.Zero(t, itm.Gamma)

	otm := ComputeGreeks(90, 100, 0, 0.05, 0.3, types.Call)
	assert.Zero(t, otm.Delta)
}

func TestD1D2_Degenerate(t *testing.T) {
	d1, d2 := D1D2(100, 100, 0, 0.05, 0.3)
	assert.Zero(t, d1)
	assert.Zero(t, d2)
}
