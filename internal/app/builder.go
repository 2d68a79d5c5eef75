package app

import (
	"fmt"
	"strings"
	"time"

	"osprey/internal/analysis"
	oscfg "osprey/internal/config"
	"osprey/internal/config/loader"
	"osprey/internal/logger"
	"osprey/internal/provider"
	"osprey/internal/risk"
	"osprey/internal/screener"
	"osprey/internal/server"
	"osprey/internal/service"
	"osprey/internal/store/gormstore"
	"osprey/internal/store/history"
)

// 数据源熔断参数：连续失败 5 次后熔断，30 秒后放行探测。
const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

func build(cfg *oscfg.Config) (*App, error) {
	source, err := buildChainSource(cfg.Provider)
	if err != nil {
		return nil, err
	}

	positions, err := gormstore.NewPortfolioStore(cfg.Store.PortfolioDB)
	if err != nil {
		return nil, fmt.Errorf("初始化持仓存储失败: %w", err)
	}
	histStore, err := history.New(cfg.Store.HistoryDB)
	if err != nil {
		positions.Close()
		return nil, fmt.Errorf("初始化历史存储失败: %w", err)
	}

	profiles := buildProfileLoader(cfg.Screening.ProfilesPath)

	analyzer := analysis.NewAnalyzer(cfg.Analysis.RiskFreeRate)
	screenSvc := &service.ScreenService{
		Source:     source,
		Engine:     screener.NewEngine(analyzer),
		Defaults:   cfg.Screening.Criteria(),
		Profiles:   profiles,
		History:    histStore,
		MaxResults: cfg.Screening.MaxResults,
	}

	riskMgr := buildRiskManager(cfg)

	httpServer, err := server.NewServer(server.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Screen:    screenSvc,
		Risk:      riskMgr,
		Positions: positions,
		History:   histStore,
	})
	if err != nil {
		positions.Close()
		histStore.Close()
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}
	logger.Infof("✓ HTTP 接口监听 %s", httpServer.Addr())

	return &App{
		cfg:       cfg,
		http:      httpServer,
		screen:    screenSvc,
		risk:      riskMgr,
		positions: positions,
		history:   histStore,
	}, nil
}

func buildChainSource(cfg oscfg.ProviderConfig) (provider.ChainSource, error) {
	fileSource, err := provider.NewFileSource(cfg.ChainDir)
	if err != nil {
		return nil, fmt.Errorf("初始化期权链数据源失败: %w", err)
	}
	limited := provider.NewRateLimited(fileSource, cfg.RateLimitRPS, cfg.RateLimitBurst)
	return provider.NewBreaker(limited, breakerThreshold, breakerCooldown), nil
}

// buildProfileLoader 加载预设配置文件；文件缺失时退回内置预设而非报错。
func buildProfileLoader(path string) *loader.ProfileLoader {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	profiles, err := loader.NewProfileLoader(path)
	if err != nil {
		logger.Warnf("加载筛选预设文件失败（使用内置预设）: %v", err)
		return nil
	}
	return profiles
}

func buildRiskManager(cfg *oscfg.Config) *risk.Manager {
	mgr := risk.NewManager(cfg.Analysis.Capital)
	if cfg.Risk.MaxRiskPerTrade > 0 {
		mgr.Sizer.MaxRiskPerTrade = cfg.Risk.MaxRiskPerTrade
		mgr.Monitor.MaxSinglePositionRisk = cfg.Risk.MaxRiskPerTrade
	}
	if cfg.Risk.MaxPortfolioRisk > 0 {
		mgr.Sizer.MaxPortfolioRisk = cfg.Risk.MaxPortfolioRisk
		mgr.Monitor.MaxPortfolioRisk = cfg.Risk.MaxPortfolioRisk
	}
	if cfg.Risk.MaxMarginUtilization > 0 {
		mgr.Monitor.MaxMarginUtilization = cfg.Risk.MaxMarginUtilization
	}
	return mgr
}
