// Package pricing 实现闭式期权定价、Greeks、隐含波动率反解与到期概率模型。
package pricing

import (
	"math"

	"osprey/internal/types"
)

const (
	daysPerYear = 365.0
	sqrt2Pi     = 2.5066282746310002
)

// normCDF 标准正态分布函数。
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPDF 标准正态密度函数。
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// D1D2 计算 Black-Scholes 的 d1/d2；退化输入返回 (0, 0)。
func D1D2(s, k, t, r, sigma float64) (float64, float64) {
	if t <= 0 || sigma <= 0 {
		return 0, 0
	}
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// Intrinsic 返回期权内在价值。
func Intrinsic(s, k float64, side types.OptionSide) float64 {
	if side.IsPut() {
		return math.Max(k-s, 0)
	}
	return math.Max(s-k, 0)
}

// Price 计算理论价格。T<=0 或 sigma<=0 时退化为内在价值。
func Price(s, k, t, r, sigma float64, side types.OptionSide) float64 {
	if t <= 0 || sigma <= 0 {
		return Intrinsic(s, k, side)
	}
	if s <= 0 || k <= 0 {
		return 0
	}
	d1, d2 := D1D2(s, k, t, r, sigma)
	var price float64
	if side.IsPut() {
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
	} else {
		price = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	}
	return math.Max(price, 0)
}

// ComputeGreeks 计算五个敏感度。theta 为每日，vega/rho 为每 1% 变动。
// 到期或零波动率时按到期惯例退化：ITM call 的 delta 为 1，其余全为 0。
func ComputeGreeks(s, k, t, r, sigma float64, side types.OptionSide) types.Greeks {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		var delta float64
		if !side.IsPut() && s > k {
			delta = 1
		}
		return types.Greeks{Delta: delta}
	}

	d1, d2 := D1D2(s, k, t, r, sigma)
	sqrtT := math.Sqrt(t)

	var delta float64
	if side.IsPut() {
		delta = -normCDF(-d1)
	} else {
		delta = normCDF(d1)
	}

	gamma := normPDF(d1) / (s * sigma * sqrtT)

	thetaCore := -(s * normPDF(d1) * sigma) / (2 * sqrtT)
	var theta float64
	if side.IsPut() {
		theta = (thetaCore + r*k*math.Exp(-r*t)*normCDF(-d2)) / daysPerYear
	} else {
		theta = (thetaCore - r*k*math.Exp(-r*t)*normCDF(d2)) / daysPerYear
	}

	vega := s * normPDF(d1) * sqrtT / 100

	var rho float64
	if side.IsPut() {
		rho = -k * t * math.Exp(-r*t) * normCDF(-d2) / 100
	} else {
		rho = k * t * math.Exp(-r*t) * normCDF(d2) / 100
	}

	return types.Greeks{Delta: delta, Gamma: gamma, Theta: theta, Vega: vega, Rho: rho}
}
