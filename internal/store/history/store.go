// Package history 用原生 SQLite 记录历次筛选运行。
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"osprey/internal/store"
	"osprey/internal/types"

	_ "modernc.org/sqlite"
)

// Store 实现 store.HistoryStore。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ store.HistoryStore = (*Store)(nil)

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("history store: 数据库路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS analysis_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    ts INTEGER NOT NULL,
    symbols TEXT NOT NULL,
    strategy_preset TEXT DEFAULT '',
    num_opportunities INTEGER DEFAULT 0,
    results_json TEXT,
    market_context_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_analysis_ts ON analysis_history(ts);
`)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun 保存一次运行并返回 run_id。
func (s *Store) SaveRun(ctx context.Context, symbols []string, preset string, opps []types.StrategyOpportunity, marketContext map[string]any) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("history store 未初始化")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	symbolsJSON, err := json.Marshal(symbols)
	if err != nil {
		return "", err
	}
	resultsJSON, err := json.Marshal(opps)
	if err != nil {
		return "", err
	}
	if marketContext == nil {
		marketContext = map[string]any{}
	}
	contextJSON, err := json.Marshal(marketContext)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO analysis_history (run_id, ts, symbols, strategy_preset, num_opportunities, results_json, market_context_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().Unix(), string(symbolsJSON), preset, len(opps), string(resultsJSON), string(contextJSON))
	if err != nil {
		return "", err
	}
	return runID, nil
}

// ListRuns 按时间倒序返回最近的运行摘要。
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.AnalysisRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store 未初始化")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, ts, symbols, strategy_preset, num_opportunities
FROM analysis_history ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.AnalysisRun
	for rows.Next() {
		var r store.AnalysisRun
		if err := rows.Scan(&r.ID, &r.RunID, &r.Timestamp, &r.Symbols, &r.Preset, &r.NumOpportunities); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun 返回单次运行的完整结果。
func (s *Store) GetRun(ctx context.Context, runID string) (store.AnalysisDetail, error) {
	var detail store.AnalysisDetail
	if s == nil || s.db == nil {
		return detail, fmt.Errorf("history store 未初始化")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, run_id, ts, symbols, strategy_preset, num_opportunities, results_json, market_context_json
FROM analysis_history WHERE run_id = ?`, runID)

	var resultsJSON, contextJSON sql.NullString
	err := row.Scan(&detail.ID, &detail.RunID, &detail.Timestamp, &detail.Symbols,
		&detail.Preset, &detail.NumOpportunities, &resultsJSON, &contextJSON)
	if err == sql.ErrNoRows {
		return detail, fmt.Errorf("运行 %s 不存在", runID)
	}
	if err != nil {
		return detail, err
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &detail.Opportunities); err != nil {
			return detail, fmt.Errorf("解析运行结果失败: %w", err)
		}
	}
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &detail.MarketContext); err != nil {
			return detail, fmt.Errorf("解析市场上下文失败: %w", err)
		}
	}
	return detail, nil
}
