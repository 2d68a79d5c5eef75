package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"osprey/internal/analysis"
	"osprey/internal/provider"
	"osprey/internal/risk"
	"osprey/internal/screener"
	"osprey/internal/service"
	"osprey/internal/store"
	"osprey/internal/types"
)

type fakeSource struct {
	snapshots map[string]provider.ChainSnapshot
}

func (f *fakeSource) Snapshot(ctx context.Context, symbol string) (provider.ChainSnapshot, error) {
	snap, ok := f.snapshots[symbol]
	if !ok {
		return provider.ChainSnapshot{}, fmt.Errorf("无此标的: %s", symbol)
	}
	return snap, nil
}

func (f *fakeSource) Symbols(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(f.snapshots))
	for sym := range f.snapshots {
		out = append(out, sym)
	}
	return out, nil
}

// memPositions 是内存版 store.PositionStore。
type memPositions struct {
	nextID    int64
	positions map[int64]types.OpenPosition
}

var _ store.PositionStore = (*memPositions)(nil)

func newMemPositions() *memPositions {
	return &memPositions{nextID: 1, positions: map[int64]types.OpenPosition{}}
}

func (m *memPositions) AddPosition(ctx context.Context, pos types.OpenPosition) (int64, error) {
	pos.ID = m.nextID
	if pos.Status == "" {
		pos.Status = "open"
	}
	m.positions[pos.ID] = pos
	m.nextID++
	return pos.ID, nil
}

func (m *memPositions) ListPositions(ctx context.Context, status string) ([]types.OpenPosition, error) {
	var out []types.OpenPosition
	for _, p := range m.positions {
		if status == "" || status == "all" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPositions) GetPosition(ctx context.Context, id int64) (types.OpenPosition, error) {
	p, ok := m.positions[id]
	if !ok {
		return types.OpenPosition{}, fmt.Errorf("持仓 %d 不存在", id)
	}
	return p, nil
}

func (m *memPositions) ClosePosition(ctx context.Context, id int64, closePremium float64, closeDate string) error {
	p, ok := m.positions[id]
	if !ok {
		return fmt.Errorf("持仓 %d 不存在", id)
	}
	p.Status = "closed"
	p.ClosePremium = closePremium
	p.CloseDate = closeDate
	m.positions[id] = p
	return nil
}

func (m *memPositions) DeletePosition(ctx context.Context, id int64) error {
	delete(m.positions, id)
	return nil
}

func (m *memPositions) UpdateWheelState(ctx context.Context, id int64, state types.WheelState, tr types.WheelTransition) error {
	p, ok := m.positions[id]
	if !ok {
		return fmt.Errorf("持仓 %d 不存在", id)
	}
	p.WheelState = state
	p.WheelHistory = append(p.WheelHistory, tr)
	m.positions[id] = p
	return nil
}

func (m *memPositions) ListWheelPositions(ctx context.Context) ([]types.OpenPosition, error) {
	var out []types.OpenPosition
	for _, p := range m.positions {
		if p.WheelState != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPositions) UpdateGreeks(ctx context.Context, id int64, g types.Greeks) error {
	p := m.positions[id]
	p.Greeks = g
	m.positions[id] = p
	return nil
}

func (m *memPositions) PortfolioGreeks(ctx context.Context) (store.PortfolioGreeks, error) {
	return store.PortfolioGreeks{BySymbol: map[string]types.Greeks{}}, nil
}

func (m *memPositions) PortfolioSummary(ctx context.Context) (store.PortfolioSummary, error) {
	return store.PortfolioSummary{OpenCount: len(m.positions)}, nil
}

func (m *memPositions) Close() error { return nil }

// memHistory 是内存版 store.HistoryStore。
type memHistory struct {
	runs map[string]store.AnalysisDetail
}

var _ store.HistoryStore = (*memHistory)(nil)

func (m *memHistory) SaveRun(ctx context.Context, symbols []string, preset string, opps []types.StrategyOpportunity, marketContext map[string]any) (string, error) {
	if m.runs == nil {
		m.runs = map[string]store.AnalysisDetail{}
	}
	runID := fmt.Sprintf("run-%d", len(m.runs)+1)
	m.runs[runID] = store.AnalysisDetail{
		AnalysisRun:   store.AnalysisRun{RunID: runID, Preset: preset, NumOpportunities: len(opps)},
		Opportunities: opps,
		MarketContext: marketContext,
	}
	return runID, nil
}

func (m *memHistory) ListRuns(ctx context.Context, limit int) ([]store.AnalysisRun, error) {
	var out []store.AnalysisRun
	for _, d := range m.runs {
		out = append(out, d.AnalysisRun)
	}
	return out, nil
}

func (m *memHistory) GetRun(ctx context.Context, runID string) (store.AnalysisDetail, error) {
	d, ok := m.runs[runID]
	if !ok {
		return store.AnalysisDetail{}, fmt.Errorf("运行 %s 不存在", runID)
	}
	return d, nil
}

func (m *memHistory) Close() error { return nil }

func testChain() provider.ChainSnapshot {
	return provider.ChainSnapshot{
		Symbol:     "AAPL",
		StockPrice: 100,
		Expiries: []provider.ExpirySlice{
			{
				ExpiryDate:   "2025-07-18",
				DaysToExpiry: 30,
				Puts: []types.OptionQuote{
					{Side: types.Put, Strike: 95, Bid: 1.2, Ask: 1.3, Volume: 1500, OpenInterest: 3000, ImpliedVolatility: 0.30},
				},
			},
		},
	}
}

func newTestRouter(positions store.PositionStore, history store.HistoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	screen := &service.ScreenService{
		Source:     &fakeSource{snapshots: map[string]provider.ChainSnapshot{"AAPL": testChain()}},
		Engine:     screener.NewEngine(analysis.NewAnalyzer(0.05)),
		Defaults:   screener.DefaultCriteria(),
		History:    history,
		MaxResults: 20,
	}
	engine := gin.New()
	NewRouter(screen, risk.NewManager(100000), positions, history).Register(engine.Group("/api/v1"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHandleScreen(t *testing.T) {
	engine := newTestRouter(newMemPositions(), &memHistory{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/screen", service.ScreenRequest{
		Symbols:    []string{"AAPL"},
		Strategies: []string{"cash_secured_put"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var out service.ScreenResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 1, out.SymbolsOK)
	assert.Len(t, out.Opportunities, 1)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/screen", service.ScreenRequest{
		Symbols:    []string{"AAPL"},
		Strategies: []string{"unknown"},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlePresets(t *testing.T) {
	engine := newTestRouter(newMemPositions(), &memHistory{})

	w := doJSON(t, engine, http.MethodGet, "/api/v1/presets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "conservative_income")
}

func TestHandleRiskTrade(t *testing.T) {
	engine := newTestRouter(newMemPositions(), &memHistory{})

	body := map[string]any{
		"opportunity": types.StrategyOpportunity{
			Kind:       types.BullPutSpread,
			Symbol:     "AAPL",
			StockPrice: 100,
			Strikes:    types.Strikes{ShortPut: 95, LongPut: 90},
			Returns:    types.StrategyReturns{NetCredit: 70, MaxProfit: 70, MaxLoss: 430},
		},
	}
	w := doJSON(t, engine, http.MethodPost, "/api/v1/risk/trade", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var out risk.TradeAssessment
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Recommendation)
	assert.Equal(t, 4, out.Sizing.RecommendedSize, "未给资金时按账户本金计算")
}

func TestHandleRiskPortfolio(t *testing.T) {
	engine := newTestRouter(newMemPositions(), &memHistory{})

	body := map[string]any{
		"positions": []map[string]any{
			{
				"opportunity": types.StrategyOpportunity{
					Kind:       types.BullPutSpread,
					Symbol:     "AAPL",
					StockPrice: 100,
					Returns:    types.StrategyReturns{MaxProfit: 70, MaxLoss: 430},
				},
				"size": 2,
			},
		},
	}
	w := doJSON(t, engine, http.MethodPost, "/api/v1/risk/portfolio", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var out risk.PortfolioAssessment
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Metrics.TotalPositions)
	assert.Equal(t, 860.0, out.Metrics.TotalMaxLoss)
}

func TestPositionLifecycle(t *testing.T) {
	engine := newTestRouter(newMemPositions(), &memHistory{})

	// 缺 symbol 拒绝
	w := doJSON(t, engine, http.MethodPost, "/api/v1/positions", types.OpenPosition{Strike: 95})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/positions", types.OpenPosition{
		Symbol: "AAPL", Strategy: types.CashSecuredPut, Strike: 95,
		ExpiryDate: "2025-07-18", PremiumPerContract: 1.25,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Positive(t, created.ID)

	w = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/v1/positions/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/positions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/positions/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/positions/%d/close", created.ID), map[string]any{"close_premium": 0.35})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/positions/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWheelEndpoints(t *testing.T) {
	positions := newMemPositions()
	engine := newTestRouter(positions, &memHistory{})

	id, err := positions.AddPosition(context.Background(), types.OpenPosition{
		Symbol: "AAPL", Strategy: types.CashSecuredPut, Strike: 95, ExpiryDate: "2025-07-18",
	})
	assert.NoError(t, err)

	w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/positions/%d/wheel", id), map[string]any{"state": "sell_put", "note": "开仓"})
	assert.Equal(t, http.StatusOK, w.Code)

	var tr types.WheelTransition
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.Equal(t, types.WheelIdle, tr.From)
	assert.Equal(t, types.WheelSellPut, tr.To)
	assert.Equal(t, "开仓", tr.Note)

	// 迁移记录随持仓持久化
	pos, err := positions.GetPosition(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, types.WheelSellPut, pos.WheelState)
	assert.Len(t, pos.WheelHistory, 1)

	w = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/positions/%d/wheel", id), map[string]any{"state": "exercised"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/wheel/positions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "state_label")
}

func TestRollSuggestions(t *testing.T) {
	positions := newMemPositions()
	engine := newTestRouter(positions, &memHistory{})

	id, err := positions.AddPosition(context.Background(), types.OpenPosition{
		Symbol: "AAPL", Strategy: types.CashSecuredPut, Strike: 105,
		ExpiryDate: "2099-07-18", PremiumPerContract: 1.25,
	})
	assert.NoError(t, err)

	w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/v1/positions/%d/rolls?spot=100", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "candidates")

	w = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/v1/positions/%d/rolls", id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	history := &memHistory{}
	runID, err := history.SaveRun(context.Background(), []string{"AAPL"}, "", []types.StrategyOpportunity{
		{
			Kind: types.CashSecuredPut, Symbol: "AAPL", StockPrice: 100,
			Strikes: types.Strikes{Strike: 95}, Score: 72,
		},
	}, nil)
	assert.NoError(t, err)
	engine := newTestRouter(newMemPositions(), history)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), runID)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/history/"+runID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/history/"+runID+"/report", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = doJSON(t, engine, http.MethodGet, "/api/v1/history/none", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
