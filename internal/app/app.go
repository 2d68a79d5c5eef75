// Package app 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	oscfg "osprey/internal/config"
	"osprey/internal/logger"
	"osprey/internal/risk"
	"osprey/internal/scheduler"
	"osprey/internal/server"
	"osprey/internal/service"
	"osprey/internal/store"
)

// App 持有全部已初始化的依赖。
type App struct {
	cfg       *oscfg.Config
	http      *server.Server
	screen    *service.ScreenService
	risk      *risk.Manager
	positions store.PositionStore
	history   store.HistoryStore
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *oscfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run 启动 HTTP 服务，直到 ctx 取消或出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if interval, offset, err := a.cfg.Screening.ScanSchedule(); err == nil && interval > 0 {
		group.Go(func() error {
			a.runScheduledScans(ctx, interval, offset)
			return nil
		})
	}
	return group.Wait()
}

// runScheduledScans 按配置的对齐间隔周期性执行筛选扫描并落历史库。
func (a *App) runScheduledScans(ctx context.Context, interval, offset time.Duration) {
	sched := scheduler.NewAlignedScheduler(ctx, interval, offset)
	sched.Start(func() {
		scanCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		req := service.ScreenRequest{
			Symbols: a.cfg.Screening.Symbols,
			Preset:  a.cfg.Screening.Preset,
			SaveRun: true,
		}
		result, err := a.screen.Screen(scanCtx, req)
		if err != nil {
			logger.Errorf("定时扫描失败: %v", err)
			return
		}
		logger.Infof("定时扫描完成 run=%s 机会=%d", result.RunID, len(result.Opportunities))
	})
}

// Close 释放存储连接。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.positions != nil {
		if err := a.positions.Close(); err != nil {
			logger.Warnf("关闭持仓存储失败: %v", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Warnf("关闭历史存储失败: %v", err)
		}
	}
}

// ScreenService 暴露筛选服务实例（测试与脚本复用）。
func (a *App) ScreenService() *service.ScreenService {
	if a == nil {
		return nil
	}
	return a.screen
}
