// Package screener 对腿与组合后的策略机会应用规则筛选，并评分排名。
package screener

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"osprey/internal/types"
)

// Criteria 是一次筛选调用的阈值集合。值语义：筛选引擎从不修改传入的配置，
// 预设合并与覆盖都返回新值。
type Criteria struct {
	MinStockPrice        float64 `mapstructure:"min_stock_price" yaml:"min_stock_price"`
	MaxStockPrice        float64 `mapstructure:"max_stock_price" yaml:"max_stock_price"`
	MinDaysToExpiry      int     `mapstructure:"min_days_to_expiry" yaml:"min_days_to_expiry"`
	MaxDaysToExpiry      int     `mapstructure:"max_days_to_expiry" yaml:"max_days_to_expiry"`
	MinVolume            int64   `mapstructure:"min_volume" yaml:"min_volume"`
	MinOpenInterest      int64   `mapstructure:"min_open_interest" yaml:"min_open_interest"`
	MaxBidAskSpreadPct   float64 `mapstructure:"max_bid_ask_spread_pct" yaml:"max_bid_ask_spread_pct"`
	MinDelta             float64 `mapstructure:"min_delta" yaml:"min_delta"`
	MaxDelta             float64 `mapstructure:"max_delta" yaml:"max_delta"`
	MinAnnualizedReturn  float64 `mapstructure:"min_annualized_return" yaml:"min_annualized_return"`
	MinProfitProbability float64 `mapstructure:"min_profit_probability" yaml:"min_profit_probability"`
	MinSpreadWidth       float64 `mapstructure:"min_spread_width" yaml:"min_spread_width"`
	MaxSpreadWidth       float64 `mapstructure:"max_spread_width" yaml:"max_spread_width"`
	AvoidEarnings        bool    `mapstructure:"avoid_earnings" yaml:"avoid_earnings"`
	MaxResultsPerSymbol  int     `mapstructure:"max_results_per_symbol" yaml:"max_results_per_symbol"`
}

// DefaultCriteria 返回文档化的默认阈值。
func DefaultCriteria() Criteria {
	return Criteria{
		MinStockPrice:        10,
		MaxStockPrice:        500,
		MinDaysToExpiry:      7,
		MaxDaysToExpiry:      60,
		MinVolume:            50,
		MinOpenInterest:      100,
		MaxBidAskSpreadPct:   15,
		MinDelta:             0.1,
		MaxDelta:             0.5,
		MinAnnualizedReturn:  0,
		MinProfitProbability: 0,
		MinSpreadWidth:       1,
		MaxSpreadWidth:       10,
		AvoidEarnings:        true,
		MaxResultsPerSymbol:  5,
	}
}

// Validate 在配置装载阶段拒绝不自洽的阈值对（区别于分析路径的软失败）。
func (c Criteria) Validate() error {
	if c.MinDaysToExpiry > c.MaxDaysToExpiry {
		return fmt.Errorf("min_days_to_expiry (%d) 不能大于 max_days_to_expiry (%d)", c.MinDaysToExpiry, c.MaxDaysToExpiry)
	}
	if c.MinDelta > c.MaxDelta {
		return fmt.Errorf("min_delta (%.2f) 不能大于 max_delta (%.2f)", c.MinDelta, c.MaxDelta)
	}
	if c.MinStockPrice > c.MaxStockPrice {
		return fmt.Errorf("min_stock_price (%.2f) 不能大于 max_stock_price (%.2f)", c.MinStockPrice, c.MaxStockPrice)
	}
	if c.MinSpreadWidth > c.MaxSpreadWidth {
		return fmt.Errorf("min_spread_width (%.2f) 不能大于 max_spread_width (%.2f)", c.MinSpreadWidth, c.MaxSpreadWidth)
	}
	if c.MinOpenInterest < 0 {
		return fmt.Errorf("min_open_interest (%d) 不能为负数", c.MinOpenInterest)
	}
	if c.MinVolume < 0 {
		return fmt.Errorf("min_volume (%d) 不能为负数", c.MinVolume)
	}
	return nil
}

// Overrides 表示对部分阈值的覆盖；nil 字段保持原值。
type Overrides struct {
	MinStockPrice        *float64 `yaml:"min_stock_price"`
	MaxStockPrice        *float64 `yaml:"max_stock_price"`
	MinDaysToExpiry      *int     `yaml:"min_days_to_expiry"`
	MaxDaysToExpiry      *int     `yaml:"max_days_to_expiry"`
	MinVolume            *int64   `yaml:"min_volume"`
	MinOpenInterest      *int64   `yaml:"min_open_interest"`
	MaxBidAskSpreadPct   *float64 `yaml:"max_bid_ask_spread_pct"`
	MinDelta             *float64 `yaml:"min_delta"`
	MaxDelta             *float64 `yaml:"max_delta"`
	MinAnnualizedReturn  *float64 `yaml:"min_annualized_return"`
	MinProfitProbability *float64 `yaml:"min_profit_probability"`
	MinSpreadWidth       *float64 `yaml:"min_spread_width"`
	MaxSpreadWidth       *float64 `yaml:"max_spread_width"`
	AvoidEarnings        *bool    `yaml:"avoid_earnings"`
	MaxResultsPerSymbol  *int     `yaml:"max_results_per_symbol"`
}

// Apply 返回应用覆盖后的新配置，原值不变。
func (c Criteria) Apply(o Overrides) Criteria {
	out := c
	if o.MinStockPrice != nil {
		out.MinStockPrice = *o.MinStockPrice
	}
	if o.MaxStockPrice != nil {
		out.MaxStockPrice = *o.MaxStockPrice
	}
	if o.MinDaysToExpiry != nil {
		out.MinDaysToExpiry = *o.MinDaysToExpiry
	}
	if o.MaxDaysToExpiry != nil {
		out.MaxDaysToExpiry = *o.MaxDaysToExpiry
	}
	if o.MinVolume != nil {
		out.MinVolume = *o.MinVolume
	}
	if o.MinOpenInterest != nil {
		out.MinOpenInterest = *o.MinOpenInterest
	}
	if o.MaxBidAskSpreadPct != nil {
		out.MaxBidAskSpreadPct = *o.MaxBidAskSpreadPct
	}
	if o.MinDelta != nil {
		out.MinDelta = *o.MinDelta
	}
	if o.MaxDelta != nil {
		out.MaxDelta = *o.MaxDelta
	}
	if o.MinAnnualizedReturn != nil {
		out.MinAnnualizedReturn = *o.MinAnnualizedReturn
	}
	if o.MinProfitProbability != nil {
		out.MinProfitProbability = *o.MinProfitProbability
	}
	if o.MinSpreadWidth != nil {
		out.MinSpreadWidth = *o.MinSpreadWidth
	}
	if o.MaxSpreadWidth != nil {
		out.MaxSpreadWidth = *o.MaxSpreadWidth
	}
	if o.AvoidEarnings != nil {
		out.AvoidEarnings = *o.AvoidEarnings
	}
	if o.MaxResultsPerSymbol != nil {
		out.MaxResultsPerSymbol = *o.MaxResultsPerSymbol
	}
	return out
}

// ForStrategy 返回对特定策略微调后的阈值副本。
func (c Criteria) ForStrategy(kind types.StrategyKind) Criteria {
	out := c
	switch kind {
	case types.CoveredCall:
		out.MinDelta, out.MaxDelta = 0.2, 0.4
	case types.CashSecuredPut:
		out.MinDelta, out.MaxDelta = 0.15, 0.35
	case types.ShortStrangle:
		out.MinDelta, out.MaxDelta = 0.1, 0.3
		out.MinProfitProbability = maxf(out.MinProfitProbability, 60)
	case types.IronCondor:
		out.MinDelta, out.MaxDelta = 0.05, 0.25
		out.MinProfitProbability = maxf(out.MinProfitProbability, 65)
	}
	return out
}

// LoadProfiles 从 YAML 文件读取命名预设（形如 name → 覆盖项）。
func LoadProfiles(path string) (map[string]Overrides, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]Overrides
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("解析筛选预设失败 (%s): %w", path, err)
	}
	return out, nil
}

// EarningsNearby 判断目标日期是否落在财报日前后 7 天内；日期缺失或不可解析返回 false。
func EarningsNearby(target time.Time, earningsDate string) bool {
	if earningsDate == "" {
		return false
	}
	earnings, err := time.Parse("2006-01-02", earningsDate)
	if err != nil {
		return false
	}
	diff := target.Sub(earnings).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	return diff <= 7
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
