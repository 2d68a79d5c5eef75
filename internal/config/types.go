package config

import "strings"

// Config 是 Osprey 的主配置载体。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Store     StoreConfig     `mapstructure:"store"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

// AnalysisConfig 控制定价与收益计算的全局参数。
type AnalysisConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	Capital      float64 `mapstructure:"capital"`
}

// ProviderConfig 描述期权链数据源。
type ProviderConfig struct {
	ChainDir       string  `mapstructure:"chain_dir"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// ScreeningConfig 持有筛选默认阈值与预设来源。
// Defaults 的字段级默认值与校验见 screener 包。
type ScreeningConfig struct {
	Symbols      []string          `mapstructure:"symbols"`
	Preset       string            `mapstructure:"preset"`
	ProfilesPath string            `mapstructure:"profiles_path"`
	MaxResults   int               `mapstructure:"max_results"`
	ScanInterval string            `mapstructure:"scan_interval"`
	ScanOffset   string            `mapstructure:"scan_offset"`
	Defaults     ScreeningDefaults `mapstructure:"defaults"`
}

// ScreeningDefaults 镜像 screener.Criteria 的可配置子集。
type ScreeningDefaults struct {
	MinStockPrice        float64 `mapstructure:"min_stock_price"`
	MaxStockPrice        float64 `mapstructure:"max_stock_price"`
	MinDaysToExpiry      int     `mapstructure:"min_days_to_expiry"`
	MaxDaysToExpiry      int     `mapstructure:"max_days_to_expiry"`
	MinVolume            int64   `mapstructure:"min_volume"`
	MinOpenInterest      int64   `mapstructure:"min_open_interest"`
	MaxBidAskSpreadPct   float64 `mapstructure:"max_bid_ask_spread_pct"`
	MinDelta             float64 `mapstructure:"min_delta"`
	MaxDelta             float64 `mapstructure:"max_delta"`
	MinAnnualizedReturn  float64 `mapstructure:"min_annualized_return"`
	MinProfitProbability float64 `mapstructure:"min_profit_probability"`
	MinSpreadWidth       float64 `mapstructure:"min_spread_width"`
	MaxSpreadWidth       float64 `mapstructure:"max_spread_width"`
	AvoidEarnings        bool    `mapstructure:"avoid_earnings"`
	MaxResultsPerSymbol  int     `mapstructure:"max_results_per_symbol"`
}

// RiskConfig 控制风控预算。
type RiskConfig struct {
	MaxRiskPerTrade      float64 `mapstructure:"max_risk_per_trade"`
	MaxPortfolioRisk     float64 `mapstructure:"max_portfolio_risk"`
	MaxMarginUtilization float64 `mapstructure:"max_margin_utilization"`
}

// StoreConfig 指定持仓与历史数据库路径。
type StoreConfig struct {
	PortfolioDB string `mapstructure:"portfolio_db"`
	HistoryDB   string `mapstructure:"history_db"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
