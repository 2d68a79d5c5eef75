package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。阈值对不自洽在加载阶段直接拒绝。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	if err := c.Screening.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("app.log_level 不支持: %s", a.LogLevel)
}

func (a *AnalysisConfig) validate() error {
	if a.RiskFreeRate < 0 || a.RiskFreeRate > 1 {
		return fmt.Errorf("analysis.risk_free_rate 必须在 [0, 1] 区间: %v", a.RiskFreeRate)
	}
	if a.Capital <= 0 {
		return fmt.Errorf("analysis.capital 必须为正数: %v", a.Capital)
	}
	return nil
}

func (s *ScreeningConfig) validate() error {
	if err := s.Criteria().Validate(); err != nil {
		return fmt.Errorf("screening.defaults 校验失败: %w", err)
	}
	if _, _, err := s.ScanSchedule(); err != nil {
		return err
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxRiskPerTrade <= 0 || r.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk.max_risk_per_trade 必须在 (0, 1] 区间: %v", r.MaxRiskPerTrade)
	}
	if r.MaxPortfolioRisk <= 0 || r.MaxPortfolioRisk > 1 {
		return fmt.Errorf("risk.max_portfolio_risk 必须在 (0, 1] 区间: %v", r.MaxPortfolioRisk)
	}
	if r.MaxRiskPerTrade > r.MaxPortfolioRisk {
		return fmt.Errorf("risk.max_risk_per_trade (%v) 不能大于 risk.max_portfolio_risk (%v)", r.MaxRiskPerTrade, r.MaxPortfolioRisk)
	}
	if r.MaxMarginUtilization <= 0 || r.MaxMarginUtilization > 1 {
		return fmt.Errorf("risk.max_margin_utilization 必须在 (0, 1] 区间: %v", r.MaxMarginUtilization)
	}
	return nil
}
