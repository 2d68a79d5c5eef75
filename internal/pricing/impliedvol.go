package pricing

import (
	"math"

	"osprey/internal/logger"
	"osprey/internal/types"
)

// IVStatus 区分隐含波动率求解的三种结局，调用方据此区分"无信号"与"计算失败"。
type IVStatus int

const (
	IVConverged IVStatus = iota
	IVDegenerate
	IVNoBracket
)

// IVResult 是隐含波动率反解结果；非收敛时 Vol 为 0。
type IVResult struct {
	Vol    float64
	Status IVStatus
}

const (
	ivLow  = 0.001
	ivHigh = 5.0
	ivTol  = 1e-6
)

// ImpliedVolatility 在 (0.001, 5.0) 内反解使模型价等于市场价的波动率。
// 输入退化（T<=0 或价格<=0）或区间内无符号变化时返回 0 并记录日志，属于软失败。
func ImpliedVolatility(marketPrice, s, k, t, r float64, side types.OptionSide) IVResult {
	if t <= 0 || marketPrice <= 0 || s <= 0 || k <= 0 {
		return IVResult{Status: IVDegenerate}
	}

	objective := func(sigma float64) float64 {
		return Price(s, k, t, r, sigma, side) - marketPrice
	}

	lo, hi := ivLow, ivHigh
	fLo, fHi := objective(lo), objective(hi)
	if fLo*fHi > 0 {
		logger.Warnf("隐含波动率无法夹逼求根：price=%.4f S=%.2f K=%.2f T=%.4f %s", marketPrice, s, k, t, side)
		return IVResult{Status: IVNoBracket}
	}

	// 二分法，精度 1e-6 足够覆盖报价精度。
	for i := 0; i < 200; i++ {
		mid := 0.5 * (lo + hi)
		fMid := objective(mid)
		if math.Abs(fMid) < ivTol || (hi-lo) < ivTol {
			return IVResult{Vol: mid, Status: IVConverged}
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return IVResult{Vol: 0.5 * (lo + hi), Status: IVConverged}
}
