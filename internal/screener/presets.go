package screener

import "fmt"

// 内置预设名称。
const (
	PresetConservativeIncome = "conservative_income"
	PresetAggressiveIncome   = "aggressive_income"
	PresetHighProbability    = "high_probability"
	PresetEarningsPlays      = "earnings_plays"
)

// Preset 按名称返回内置预设的覆盖项。
func Preset(name string) (Overrides, error) {
	switch name {
	case PresetConservativeIncome:
		return Overrides{
			MinDelta:             fptr(0.1),
			MaxDelta:             fptr(0.25),
			MinDaysToExpiry:      iptr(30),
			MaxDaysToExpiry:      iptr(60),
			MinProfitProbability: fptr(75),
			MinAnnualizedReturn:  fptr(12),
			AvoidEarnings:        bptr(true),
		}, nil
	case PresetAggressiveIncome:
		return Overrides{
			MinDelta:            fptr(0.3),
			MaxDelta:            fptr(0.5),
			MinDaysToExpiry:     iptr(7),
			MaxDaysToExpiry:     iptr(30),
			MinAnnualizedReturn: fptr(25),
			AvoidEarnings:       bptr(false),
		}, nil
	case PresetHighProbability:
		return Overrides{
			MinDelta:             fptr(0.05),
			MaxDelta:             fptr(0.2),
			MinProfitProbability: fptr(85),
			MinAnnualizedReturn:  fptr(8),
			AvoidEarnings:        bptr(true),
		}, nil
	case PresetEarningsPlays:
		return Overrides{
			MinDaysToExpiry: iptr(1),
			MaxDaysToExpiry: iptr(14),
			AvoidEarnings:   bptr(false),
			MinVolume:       i64ptr(200),
			MinOpenInterest: i64ptr(500),
		}, nil
	default:
		return Overrides{}, fmt.Errorf("未知的筛选预设: %s", name)
	}
}

// PresetNames 列出全部内置预设。
func PresetNames() []string {
	return []string{
		PresetConservativeIncome,
		PresetAggressiveIncome,
		PresetHighProbability,
		PresetEarningsPlays,
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func i64ptr(v int64) *int64   { return &v }
func bptr(v bool) *bool       { return &v }
