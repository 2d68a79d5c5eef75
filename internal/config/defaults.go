package config

import "strings"

// 默认值常量
const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":9985"
	defaultAppLogPath   = "data/logs/osprey.log"
	defaultRiskFreeRate = 0.05
	defaultCapital      = 100000
	defaultChainDir     = "data/chains"
	defaultRateRPS      = 2.0
	defaultRateBurst    = 4
	defaultProfilesPath = "configs/profiles.yaml"
	defaultMaxResults   = 20
	defaultPortfolioDB  = "data/db/portfolio.db"
	defaultHistoryDB    = "data/db/history.db"
	defaultMaxTradeRisk = 0.02
	defaultMaxPortRisk  = 0.1
	defaultMaxMarginUse = 0.5
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Analysis.applyDefaults(keys)
	c.Provider.applyDefaults(keys)
	c.Screening.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (a *AnalysisConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "analysis.risk_free_rate",
			need:  func() bool { return a.RiskFreeRate <= 0 },
			apply: func() { a.RiskFreeRate = defaultRiskFreeRate },
		},
		fieldDefault{
			key:   "analysis.capital",
			need:  func() bool { return a.Capital <= 0 },
			apply: func() { a.Capital = defaultCapital },
		},
	)
}

func (p *ProviderConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("provider.chain_dir", &p.ChainDir, defaultChainDir),
		fieldDefault{
			key:   "provider.rate_limit_rps",
			need:  func() bool { return p.RateLimitRPS <= 0 },
			apply: func() { p.RateLimitRPS = defaultRateRPS },
		},
		fieldDefault{
			key:   "provider.rate_limit_burst",
			need:  func() bool { return p.RateLimitBurst <= 0 },
			apply: func() { p.RateLimitBurst = defaultRateBurst },
		},
	)
}

func (s *ScreeningConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("screening.profiles_path", &s.ProfilesPath, defaultProfilesPath),
		fieldDefault{
			key:   "screening.max_results",
			need:  func() bool { return s.MaxResults <= 0 },
			apply: func() { s.MaxResults = defaultMaxResults },
		},
	)
	s.Defaults.applyDefaults(keys)
}

func (d *ScreeningDefaults) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("screening.defaults.min_stock_price", &d.MinStockPrice, 10),
		floatFieldDefault("screening.defaults.max_stock_price", &d.MaxStockPrice, 500),
		intFieldDefault("screening.defaults.min_days_to_expiry", &d.MinDaysToExpiry, 7),
		intFieldDefault("screening.defaults.max_days_to_expiry", &d.MaxDaysToExpiry, 60),
		fieldDefault{
			key:   "screening.defaults.min_volume",
			need:  func() bool { return d.MinVolume <= 0 },
			apply: func() { d.MinVolume = 50 },
		},
		fieldDefault{
			key:   "screening.defaults.min_open_interest",
			need:  func() bool { return d.MinOpenInterest <= 0 },
			apply: func() { d.MinOpenInterest = 100 },
		},
		floatFieldDefault("screening.defaults.max_bid_ask_spread_pct", &d.MaxBidAskSpreadPct, 15),
		floatFieldDefault("screening.defaults.min_delta", &d.MinDelta, 0.1),
		floatFieldDefault("screening.defaults.max_delta", &d.MaxDelta, 0.5),
		floatFieldDefault("screening.defaults.min_spread_width", &d.MinSpreadWidth, 1),
		floatFieldDefault("screening.defaults.max_spread_width", &d.MaxSpreadWidth, 10),
		fieldDefault{
			key:   "screening.defaults.avoid_earnings",
			need:  func() bool { return true },
			apply: func() { d.AvoidEarnings = true },
		},
		intFieldDefault("screening.defaults.max_results_per_symbol", &d.MaxResultsPerSymbol, 5),
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("risk.max_risk_per_trade", &r.MaxRiskPerTrade, defaultMaxTradeRisk),
		floatFieldDefault("risk.max_portfolio_risk", &r.MaxPortfolioRisk, defaultMaxPortRisk),
		floatFieldDefault("risk.max_margin_utilization", &r.MaxMarginUtilization, defaultMaxMarginUse),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.portfolio_db", &s.PortfolioDB, defaultPortfolioDB),
		stringFieldDefault("store.history_db", &s.HistoryDB, defaultHistoryDB),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
