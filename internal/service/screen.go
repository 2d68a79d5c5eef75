// Package service 把数据源、筛选引擎与历史存储编排成完整的运行流程。
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"osprey/internal/config/loader"
	"osprey/internal/logger"
	"osprey/internal/provider"
	"osprey/internal/screener"
	"osprey/internal/store"
	"osprey/internal/types"
)

// ScreenService 串联数据源、筛选引擎与历史存储，完成一次完整的筛选运行。
type ScreenService struct {
	Source     provider.ChainSource
	Engine     *screener.Engine
	Defaults   screener.Criteria
	Profiles   *loader.ProfileLoader
	History    store.HistoryStore
	MaxResults int
}

// ScreenRequest 描述一次筛选请求。Symbols 为空时使用数据源下的全部标的；
// Strategies 为空时跑全部六种策略。
type ScreenRequest struct {
	Symbols    []string `json:"symbols,omitempty"`
	Strategies []string `json:"strategies,omitempty"`
	Preset     string   `json:"preset,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	SaveRun    bool     `json:"save_run,omitempty"`
}

// ScreenResult 是一次筛选运行的产出。
type ScreenResult struct {
	RunID         string                      `json:"run_id,omitempty"`
	Preset        string                      `json:"preset,omitempty"`
	Symbols       []string                    `json:"symbols"`
	SymbolsOK     int                         `json:"symbols_ok"`
	Opportunities []types.StrategyOpportunity `json:"opportunities"`
}

var allKinds = []types.StrategyKind{
	types.CoveredCall,
	types.CashSecuredPut,
	types.ShortStrangle,
	types.IronCondor,
	types.BullPutSpread,
	types.BearCallSpread,
}

// Screen 拉取期权链、逐标的筛选并按得分全局排名。
// 单个标的拉取失败只记日志并跳过，不让整次运行失败。
func (s *ScreenService) Screen(ctx context.Context, req ScreenRequest) (ScreenResult, error) {
	symbols := req.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = s.Source.Symbols(ctx)
		if err != nil {
			return ScreenResult{}, fmt.Errorf("列举标的失败: %w", err)
		}
	}
	if len(symbols) == 0 {
		return ScreenResult{}, fmt.Errorf("没有可筛选的标的")
	}

	kinds, err := parseKinds(req.Strategies)
	if err != nil {
		return ScreenResult{}, err
	}

	crit, err := s.resolveCriteria(req.Preset)
	if err != nil {
		return ScreenResult{}, err
	}

	var inputs []screener.SymbolInput
	marketContext := map[string]any{}
	ok := 0
	for _, sym := range symbols {
		snap, err := s.Source.Snapshot(ctx, sym)
		if err != nil {
			logger.Warnf("拉取 %s 期权链失败: %v", sym, err)
			continue
		}
		ok++
		marketContext[snap.Symbol] = snap.StockPrice
		for _, exp := range snap.Expiries {
			inputs = append(inputs, screener.SymbolInput{
				Symbol:           snap.Symbol,
				StockPrice:       snap.StockPrice,
				ExpiryDate:       exp.ExpiryDate,
				DaysToExpiry:     exp.DaysToExpiry,
				Calls:            exp.Calls,
				Puts:             exp.Puts,
				NextEarnings:     snap.NextEarnings,
				HistoricalCloses: snap.HistoricalCloses,
			})
		}
	}
	if ok == 0 {
		return ScreenResult{}, fmt.Errorf("全部标的拉取失败")
	}

	perSymbol, err := s.Engine.ScreenSymbols(ctx, inputs, kinds, crit)
	if err != nil {
		return ScreenResult{}, err
	}
	var all []types.StrategyOpportunity
	for _, opps := range perSymbol {
		all = append(all, opps...)
	}
	all = screener.Rank(all)

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.MaxResults
	}
	if maxResults > 0 && len(all) > maxResults {
		all = all[:maxResults]
	}

	result := ScreenResult{
		Preset:        req.Preset,
		Symbols:       symbols,
		SymbolsOK:     ok,
		Opportunities: all,
	}
	if req.SaveRun && s.History != nil {
		runID, err := s.History.SaveRun(ctx, symbols, req.Preset, all, marketContext)
		if err != nil {
			logger.Errorf("保存筛选历史失败: %v", err)
		} else {
			result.RunID = runID
		}
	}
	logger.Infof("筛选完成 symbols=%d/%d preset=%s 机会=%d", ok, len(symbols), req.Preset, len(all))
	return result, nil
}

// Presets 返回可用配置档名：内置预设加热加载文件中的自定义档。
func (s *ScreenService) Presets() []string {
	names := screener.PresetNames()
	if s.Profiles != nil {
		snap := s.Profiles.Snapshot()
		seen := map[string]bool{}
		for _, n := range names {
			seen[n] = true
		}
		for name := range snap.Profiles {
			if !seen[name] {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (s *ScreenService) resolveCriteria(preset string) (screener.Criteria, error) {
	crit := s.Defaults
	if strings.TrimSpace(preset) == "" {
		return crit, nil
	}
	if s.Profiles != nil {
		ov, err := s.Profiles.Resolve(preset)
		if err != nil {
			return crit, err
		}
		return crit.Apply(ov), nil
	}
	ov, err := screener.Preset(preset)
	if err != nil {
		return crit, err
	}
	return crit.Apply(ov), nil
}

func parseKinds(names []string) ([]types.StrategyKind, error) {
	if len(names) == 0 {
		return allKinds, nil
	}
	kinds := make([]types.StrategyKind, 0, len(names))
	for _, name := range names {
		k := types.StrategyKind(strings.ToLower(strings.TrimSpace(name)))
		if !k.Valid() {
			return nil, fmt.Errorf("未知策略类型: %s", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
