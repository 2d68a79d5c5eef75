package screener

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// TechnicalFilter 基于日线收盘价做趋势与波动率过滤。
// 数据不足时放行，股价非法时拒绝。
func TechnicalFilter(closes []float64, spot float64) bool {
	if len(closes) == 0 {
		return true
	}
	if spot <= 0 {
		return false
	}

	// 趋势：避免强烈下跌趋势
	if len(closes) >= 50 {
		sma20 := last(talib.Sma(closes, 20))
		sma50 := last(talib.Sma(closes, 50))
		if sma20 > 0 && sma50 > 0 && spot < sma20*0.9 && sma20 < sma50*0.95 {
			return false
		}
	}

	// 波动率：避免极端区间
	if vol, ok := annualizedVolatility(closes); ok {
		if vol > 1.0 || vol < 0.1 {
			return false
		}
	}

	return true
}

// annualizedVolatility 用对数收益的样本标准差年化，样本不足返回 false。
func annualizedVolatility(closes []float64) (float64, bool) {
	if len(closes) < 21 {
		return 0, false
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	if len(rets) < 2 {
		return 0, false
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)
	return math.Sqrt(variance) * math.Sqrt(252), true
}

func last(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return 0
}
