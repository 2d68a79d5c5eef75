package pricing

import (
	"math"

	"osprey/internal/types"
)

// 概率模型有意不含无风险利率：漂移项取 -0.5σ²T（实用简化，并非严格风险中性估值）。
// 下游筛选阈值依赖该形状，勿"修正"为含 r 的漂移。

// ProbProfitShort 计算卖出该期权到期时处于盈亏平衡内侧的概率，截断到 [0,1]。
// 盈亏平衡：short call 为 K+premium，short put 为 K-premium。
func ProbProfitShort(s, k, premium, t, sigma float64, side types.OptionSide) float64 {
	if side.IsPut() {
		return probAbove(s, k-premium, t, sigma)
	}
	return probBelow(s, k+premium, t, sigma)
}

// ProbExpireWorthless 计算期权到期归零的概率（盈亏平衡取 K 本身）。
func ProbExpireWorthless(s, k, t, sigma float64, side types.OptionSide) float64 {
	if side.IsPut() {
		return probAbove(s, k, t, sigma)
	}
	return probBelow(s, k, t, sigma)
}

// ExpectedMove 返回到期时一个标准差的价格区间 (S-σS√T, S+σS√T)。
func ExpectedMove(s, t, sigma float64) (float64, float64) {
	if t <= 0 || sigma <= 0 || s <= 0 {
		return s, s
	}
	move := s * sigma * math.Sqrt(t)
	return s - move, s + move
}

// probBelow 终端价低于 level 的概率：ln(S_T) ~ N(ln S - 0.5σ²T, σ²T)。
func probBelow(s, level, t, sigma float64) float64 {
	if s <= 0 || level <= 0 || t <= 0 || sigma <= 0 {
		return 0
	}
	d := (math.Log(level/s) + 0.5*sigma*sigma*t) / (sigma * math.Sqrt(t))
	return clamp01(normCDF(d))
}

// probAbove 终端价高于 level 的概率。
func probAbove(s, level, t, sigma float64) float64 {
	if s <= 0 || level <= 0 || t <= 0 || sigma <= 0 {
		return 0
	}
	d := (math.Log(level/s) + 0.5*sigma*sigma*t) / (sigma * math.Sqrt(t))
	return clamp01(1 - normCDF(d))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
