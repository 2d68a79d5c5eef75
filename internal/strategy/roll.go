package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"osprey/internal/types"
)

// SuggestRolls 为一笔持仓生成可行的滚仓方案（最多三个）：
// roll_out（同价延期）、roll_down_out（仅 Put）、roll_up_out（仅 Call）。
// 权利金按 √(新DTE/旧DTE) 的时间价值比例估算，ITM 时回购成本计入内在价值。
func SuggestRolls(pos types.OpenPosition, spot float64) []types.RollCandidate {
	return suggestRollsAt(time.Now(), pos, spot)
}

func suggestRollsAt(now time.Time, pos types.OpenPosition, spot float64) []types.RollCandidate {
	if pos.Symbol == "" || pos.Strike <= 0 {
		return nil
	}

	expiry, err := time.Parse("2006-01-02", pos.ExpiryDate)
	if err != nil {
		expiry = now
	}
	currentDTE := int(expiry.Sub(now).Hours() / 24)

	var isITM, isThreatened bool
	switch {
	case pos.Strategy.IsPutSide():
		isITM = spot < pos.Strike
		isThreatened = spot < pos.Strike*1.03
	case pos.Strategy.IsCallSide():
		isITM = spot > pos.Strike
		isThreatened = spot > pos.Strike*0.97
	}

	var out []types.RollCandidate
	out = append(out, buildRollOut(now, pos, spot, currentDTE, isITM, isThreatened))
	if pos.Strategy.IsPutSide() {
		out = append(out, buildRollDownOut(now, pos, spot, currentDTE, isITM))
	}
	if pos.Strategy.IsCallSide() {
		out = append(out, buildRollUpOut(now, pos, spot, currentDTE, isITM))
	}
	return out
}

// buildRollOut 同执行价延期约 30 天。
func buildRollOut(now time.Time, pos types.OpenPosition, spot float64, currentDTE int, isITM, isThreatened bool) types.RollCandidate {
	newDTE := maxInt(currentDTE, 7) + 30

	timeValueRatio := 2.0
	if currentDTE > 0 {
		timeValueRatio = math.Sqrt(float64(newDTE) / float64(currentDTE))
	}

	var estimatedCredit float64
	premium := pos.PremiumPerContract
	if isITM {
		var intrinsic float64
		if pos.Strategy.IsPutSide() {
			intrinsic = math.Max(0, pos.Strike-spot)
		} else {
			intrinsic = math.Max(0, spot-pos.Strike)
		}
		buyback := intrinsic + premium*0.3
		estimatedCredit = premium*timeValueRatio - buyback
	} else {
		remaining := premium * 0.4
		if currentDTE <= 7 {
			remaining = premium * 0.2
		}
		estimatedCredit = premium*timeValueRatio - remaining
	}

	var rationale string
	switch {
	case isITM:
		rationale = "持仓已进入实值 (ITM)，延期可以避免行权并收取额外时间价值"
	case isThreatened:
		rationale = "股价接近执行价，提前滚仓可以降低行权风险"
	case currentDTE <= 21:
		rationale = "临近到期（≤21 DTE），锁定利润或继续收取权利金"
	default:
		rationale = "延期到下一个周期，继续收取时间价值"
	}

	return types.RollCandidate{
		Type:            types.RollOut,
		Label:           "Roll Out（延期）",
		NewStrike:       pos.Strike,
		NewExpiry:       now.AddDate(0, 0, newDTE).Format("2006-01-02"),
		NewDTE:          newDTE,
		EstimatedCredit: roundCents(estimatedCredit),
		OriginalPremium: premium,
		InTheMoney:      isITM,
		Rationale:       rationale,
	}
}

// buildRollDownOut 降低执行价并延期（适用于 Put 卖方）：新执行价约为股价的 95%，
// 至少比原执行价低 $5。
func buildRollDownOut(now time.Time, pos types.OpenPosition, spot float64, currentDTE int, isITM bool) types.RollCandidate {
	newStrike := math.Round(spot * 0.95)
	if newStrike >= pos.Strike {
		newStrike = pos.Strike - 5
	}
	newDTE := maxInt(currentDTE, 7) + 30

	strikeDiscount := 0.9
	if currentDTE > 0 {
		strikeDiscount = newStrike / pos.Strike
	}
	premium := pos.PremiumPerContract
	newPremium := premium * strikeDiscount * math.Sqrt(float64(newDTE)/float64(maxInt(currentDTE, 1)))

	var buyback float64
	if isITM {
		buyback = math.Max(0, pos.Strike-spot) + premium*0.2
	} else {
		buyback = premium * 0.3
	}

	return types.RollCandidate{
		Type:            types.RollDownOut,
		Label:           "Roll Down + Out（降低Strike + 延期）",
		NewStrike:       newStrike,
		NewExpiry:       now.AddDate(0, 0, newDTE).Format("2006-01-02"),
		NewDTE:          newDTE,
		EstimatedCredit: roundCents(newPremium - buyback),
		OriginalPremium: premium,
		InTheMoney:      isITM,
		Rationale: fmt.Sprintf("将 Strike 从 $%.0f 降至 $%.0f（OTM），降低被行权风险。适用于股价下跌但仍看好标的的情况。",
			pos.Strike, newStrike),
	}
}

// buildRollUpOut 提高执行价并延期（适用于 Call 卖方）：新执行价约为股价的 105%，
// 至少比原执行价高 $5。
func buildRollUpOut(now time.Time, pos types.OpenPosition, spot float64, currentDTE int, isITM bool) types.RollCandidate {
	newStrike := math.Round(spot * 1.05)
	if newStrike <= pos.Strike {
		newStrike = pos.Strike + 5
	}
	newDTE := maxInt(currentDTE, 7) + 30

	strikeFactor := 0.9
	if currentDTE > 0 {
		strikeFactor = pos.Strike / newStrike
	}
	premium := pos.PremiumPerContract
	newPremium := premium * strikeFactor * math.Sqrt(float64(newDTE)/float64(maxInt(currentDTE, 1)))

	var buyback float64
	if isITM {
		buyback = math.Max(0, spot-pos.Strike) + premium*0.2
	} else {
		buyback = premium * 0.3
	}

	return types.RollCandidate{
		Type:            types.RollUpOut,
		Label:           "Roll Up + Out（提高Strike + 延期）",
		NewStrike:       newStrike,
		NewExpiry:       now.AddDate(0, 0, newDTE).Format("2006-01-02"),
		NewDTE:          newDTE,
		EstimatedCredit: roundCents(newPremium - buyback),
		OriginalPremium: premium,
		InTheMoney:      isITM,
		Rationale: fmt.Sprintf("将 Strike 从 $%.0f 升至 $%.0f（OTM），避免被 Call Away 并继续持有股票。适用于股价上涨的情况。",
			pos.Strike, newStrike),
	}
}

// RollAdvice 按持仓状态给出一句简要处置建议。
func RollAdvice(pos types.OpenPosition, spot float64) string {
	return rollAdviceAt(time.Now(), pos, spot)
}

func rollAdviceAt(now time.Time, pos types.OpenPosition, spot float64) string {
	dte, ok := pos.DaysToExpiry(now)
	if !ok {
		dte = 999
	}

	switch {
	case pos.Strategy.IsPutSide():
		switch {
		case spot < pos.Strike*0.95:
			return "深度 ITM — 建议 Roll Down + Out 或评估是否接受行权"
		case spot < pos.Strike:
			return "轻度 ITM — 建议 Roll Out 或 Roll Down + Out"
		case dte <= 7:
			return "即将到期且 OTM — 可选择让其过期或 Roll Out 继续收益"
		case dte <= 21:
			return "考虑提前平仓锁定利润，或 Roll Out 到下一周期"
		default:
			return "状态良好，继续持有"
		}
	case pos.Strategy.IsCallSide():
		switch {
		case spot > pos.Strike*1.05:
			return "深度 ITM — 建议 Roll Up + Out 或评估是否接受行权"
		case spot > pos.Strike:
			return "轻度 ITM — 建议 Roll Out 或 Roll Up + Out"
		case dte <= 7:
			return "即将到期且 OTM — 可让其过期或 Roll Out"
		case dte <= 21:
			return "考虑提前平仓锁定利润，或 Roll Out 到下一周期"
		default:
			return "状态良好，继续持有"
		}
	}
	return "该策略类型暂不支持滚仓建议"
}

func roundCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
