// Package gormstore 用 Gorm + SQLite 实现持仓存储。
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"osprey/internal/store"
	"osprey/internal/store/model"
	"osprey/internal/types"
)

// PortfolioStore 实现 store.PositionStore。
type PortfolioStore struct {
	db *gorm.DB
}

var _ store.PositionStore = (*PortfolioStore)(nil)

// NewPortfolioStore 打开（或建立）持仓数据库并迁移表结构。
func NewPortfolioStore(path string) (*PortfolioStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("portfolio store: 数据库路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.PositionModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// SQLite + WAL：允许少量并行读，控制锁竞争
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &PortfolioStore{db: db}, nil
}

func (s *PortfolioStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PortfolioStore) AddPosition(ctx context.Context, pos types.OpenPosition) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("portfolio store 未初始化")
	}
	if pos.Symbol == "" || pos.Strategy == "" {
		return 0, fmt.Errorf("持仓记录缺少 symbol 或 strategy_type")
	}
	now := time.Now()
	m := toModel(pos)
	if m.OpenDate == "" {
		m.OpenDate = now.Format("2006-01-02")
	}
	if m.Status == "" {
		m.Status = model.PositionStatusOpen
	}
	if m.Contracts <= 0 {
		m.Contracts = 1
	}
	m.Symbol = strings.ToUpper(m.Symbol)
	m.CreatedAtUnix = now.Unix()
	m.UpdatedAtUnix = now.Unix()
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (s *PortfolioStore) ListPositions(ctx context.Context, status string) ([]types.OpenPosition, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("portfolio store 未初始化")
	}
	q := s.db.WithContext(ctx).Order("open_date DESC")
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	var models []model.PositionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.OpenPosition, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (s *PortfolioStore) GetPosition(ctx context.Context, id int64) (types.OpenPosition, error) {
	if s == nil || s.db == nil {
		return types.OpenPosition{}, fmt.Errorf("portfolio store 未初始化")
	}
	var m model.PositionModel
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.OpenPosition{}, fmt.Errorf("持仓 %d 不存在", id)
		}
		return types.OpenPosition{}, err
	}
	return toDomain(m), nil
}

func (s *PortfolioStore) ClosePosition(ctx context.Context, id int64, closePremium float64, closeDate string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("portfolio store 未初始化")
	}
	if closeDate == "" {
		closeDate = time.Now().Format("2006-01-02")
	}
	res := s.db.WithContext(ctx).Model(&model.PositionModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.PositionStatusClosed,
		"close_date":    closeDate,
		"close_premium": closePremium,
		"updated_at":    time.Now().Unix(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("持仓 %d 不存在", id)
	}
	return nil
}

func (s *PortfolioStore) DeletePosition(ctx context.Context, id int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("portfolio store 未初始化")
	}
	return s.db.WithContext(ctx).Delete(&model.PositionModel{}, id).Error
}

// UpdateWheelState 更新 wheel 状态并把迁移记录追加到持仓的 JSON 历史列。
func (s *PortfolioStore) UpdateWheelState(ctx context.Context, id int64, state types.WheelState, tr types.WheelTransition) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("portfolio store 未初始化")
	}
	if !types.ValidWheelState(state) {
		return fmt.Errorf("无效的 wheel 状态: %s", state)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.PositionModel
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("持仓 %d 不存在", id)
			}
			return err
		}
		history := decodeWheelHistory(m.WheelHistory)
		history = append(history, tr)
		raw, err := json.Marshal(history)
		if err != nil {
			return err
		}
		return tx.Model(&model.PositionModel{}).Where("id = ?", id).Updates(map[string]interface{}{
			"wheel_state":   string(state),
			"wheel_history": datatypes.JSON(raw),
			"updated_at":    time.Now().Unix(),
		}).Error
	})
}

func (s *PortfolioStore) ListWheelPositions(ctx context.Context) ([]types.OpenPosition, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("portfolio store 未初始化")
	}
	var models []model.PositionModel
	err := s.db.WithContext(ctx).
		Where("wheel_state != '' AND wheel_state IS NOT NULL").
		Order("symbol, open_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.OpenPosition, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (s *PortfolioStore) UpdateGreeks(ctx context.Context, id int64, g types.Greeks) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("portfolio store 未初始化")
	}
	return s.db.WithContext(ctx).Model(&model.PositionModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"delta":      g.Delta,
		"theta":      g.Theta,
		"gamma":      g.Gamma,
		"vega":       g.Vega,
		"updated_at": time.Now().Unix(),
	}).Error
}

// PortfolioGreeks 聚合 open 持仓的 Greeks，每条记录乘张数与 100 股。
func (s *PortfolioStore) PortfolioGreeks(ctx context.Context) (store.PortfolioGreeks, error) {
	out := store.PortfolioGreeks{BySymbol: map[string]types.Greeks{}}
	if s == nil || s.db == nil {
		return out, fmt.Errorf("portfolio store 未初始化")
	}
	var models []model.PositionModel
	if err := s.db.WithContext(ctx).Where("status = ?", model.PositionStatusOpen).Find(&models).Error; err != nil {
		return out, err
	}
	for _, m := range models {
		mult := float64(m.Contracts) * 100
		g := types.Greeks{
			Delta: m.Delta * mult,
			Theta: m.Theta * mult,
			Gamma: m.Gamma * mult,
			Vega:  m.Vega * mult,
		}
		out.TotalDelta += g.Delta
		out.TotalTheta += g.Theta
		out.TotalGamma += g.Gamma
		out.TotalVega += g.Vega
		out.BySymbol[m.Symbol] = out.BySymbol[m.Symbol].Add(g)
	}
	return out, nil
}

func (s *PortfolioStore) PortfolioSummary(ctx context.Context) (store.PortfolioSummary, error) {
	out := store.PortfolioSummary{
		StrategyDistribution: map[string]int{},
		SymbolDistribution:   map[string]int{},
	}
	if s == nil || s.db == nil {
		return out, fmt.Errorf("portfolio store 未初始化")
	}
	var models []model.PositionModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return out, err
	}
	for _, m := range models {
		credit := m.PremiumPerContract * float64(m.Contracts) * 100
		switch m.Status {
		case model.PositionStatusClosed:
			out.ClosedCount++
			out.RealizedPnL += credit - m.ClosePremium*float64(m.Contracts)*100
		default:
			out.OpenCount++
			out.TotalPremiumCollected += credit
			out.StrategyDistribution[m.StrategyType]++
			out.SymbolDistribution[m.Symbol]++
		}
	}
	return out, nil
}

func decodeWheelHistory(raw datatypes.JSON) []types.WheelTransition {
	if len(raw) == 0 {
		return nil
	}
	var out []types.WheelTransition
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toModel(p types.OpenPosition) model.PositionModel {
	var history datatypes.JSON
	if len(p.WheelHistory) > 0 {
		if raw, err := json.Marshal(p.WheelHistory); err == nil {
			history = datatypes.JSON(raw)
		}
	}
	return model.PositionModel{
		ID:                 p.ID,
		Symbol:             p.Symbol,
		StrategyType:       string(p.Strategy),
		Strike:             p.Strike,
		ExpiryDate:         p.ExpiryDate,
		Contracts:          p.Contracts,
		PremiumPerContract: p.PremiumPerContract,
		OpenDate:           p.OpenDate,
		CloseDate:          p.CloseDate,
		ClosePremium:       p.ClosePremium,
		Status:             model.PositionStatus(p.Status),
		Notes:              p.Notes,
		WheelState:         string(p.WheelState),
		WheelHistory:       history,
		Delta:              p.Greeks.Delta,
		Theta:              p.Greeks.Theta,
		Gamma:              p.Greeks.Gamma,
		Vega:               p.Greeks.Vega,
	}
}

func toDomain(m model.PositionModel) types.OpenPosition {
	return types.OpenPosition{
		ID:                 m.ID,
		Symbol:             m.Symbol,
		Strategy:           types.StrategyKind(m.StrategyType),
		Strike:             m.Strike,
		ExpiryDate:         m.ExpiryDate,
		Contracts:          m.Contracts,
		PremiumPerContract: m.PremiumPerContract,
		OpenDate:           m.OpenDate,
		CloseDate:          m.CloseDate,
		ClosePremium:       m.ClosePremium,
		Status:             string(m.Status),
		Notes:              m.Notes,
		WheelState:         types.WheelState(m.WheelState),
		WheelHistory:       decodeWheelHistory(m.WheelHistory),
		Greeks: types.Greeks{
			Delta: m.Delta,
			Theta: m.Theta,
			Gamma: m.Gamma,
			Vega:  m.Vega,
		},
	}
}
