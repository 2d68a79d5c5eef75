package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"osprey/internal/logger"
	"osprey/internal/risk"
	"osprey/internal/service"
	"osprey/internal/store"
	"osprey/internal/strategy"
	"osprey/internal/types"
	"osprey/internal/visual"
	"osprey/internal/wheel"
)

// Router 暴露筛选/风控/持仓相关的查询与操作接口。
type Router struct {
	Screen    *service.ScreenService
	Risk      *risk.Manager
	Positions store.PositionStore
	History   store.HistoryStore
	tracker   *wheel.Tracker
}

// NewRouter 构造 API router。
func NewRouter(screen *service.ScreenService, riskMgr *risk.Manager, positions store.PositionStore, history store.HistoryStore) *Router {
	return &Router{
		Screen:    screen,
		Risk:      riskMgr,
		Positions: positions,
		History:   history,
		tracker:   wheel.NewTracker(),
	}
}

// Register 将 /api/v1 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/screen", r.handleScreen)
	group.GET("/presets", r.handlePresets)
	if r.Risk != nil {
		group.POST("/risk/trade", r.handleRiskTrade)
		group.POST("/risk/portfolio", r.handleRiskPortfolio)
	}
	if r.Positions != nil {
		group.GET("/positions", r.handleListPositions)
		group.POST("/positions", r.handleAddPosition)
		group.GET("/positions/:id", r.handleGetPosition)
		group.DELETE("/positions/:id", r.handleDeletePosition)
		group.POST("/positions/:id/close", r.handleClosePosition)
		group.POST("/positions/:id/wheel", r.handleWheelTransition)
		group.GET("/positions/:id/rolls", r.handleRollSuggestions)
		group.GET("/wheel/positions", r.handleWheelPositions)
		group.GET("/portfolio/greeks", r.handlePortfolioGreeks)
		group.GET("/portfolio/summary", r.handlePortfolioSummary)
	}
	if r.History != nil {
		group.GET("/history", r.handleHistoryList)
		group.GET("/history/:run_id", r.handleHistoryDetail)
		group.GET("/history/:run_id/report", r.handleHistoryReport)
	}
}

func (r *Router) handleScreen(c *gin.Context) {
	var req service.ScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	result, err := r.Screen.Screen(ctx, req)
	if err != nil {
		logger.Errorf("[api] screen failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": r.Screen.Presets()})
}

type riskTradeRequest struct {
	Opportunity      types.StrategyOpportunity `json:"opportunity"`
	AvailableCapital float64                   `json:"available_capital"`
}

func (r *Router) handleRiskTrade(c *gin.Context) {
	var req riskTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AvailableCapital <= 0 {
		req.AvailableCapital = r.Risk.Calc.Capital
	}
	c.JSON(http.StatusOK, r.Risk.AnalyzeTrade(req.Opportunity, req.AvailableCapital))
}

type riskPortfolioRequest struct {
	Positions []struct {
		Opportunity types.StrategyOpportunity `json:"opportunity"`
		Size        int                       `json:"size"`
	} `json:"positions"`
}

func (r *Router) handleRiskPortfolio(c *gin.Context) {
	var req riskPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries := make([]risk.PortfolioEntry, 0, len(req.Positions))
	for _, p := range req.Positions {
		size := p.Size
		if size <= 0 {
			size = 1
		}
		entries = append(entries, risk.PortfolioEntry{
			Symbol: p.Opportunity.Symbol,
			Risk:   r.Risk.Calc.PositionRisk(p.Opportunity, size),
		})
	}
	var open []types.OpenPosition
	if r.Positions != nil {
		var err error
		open, err = r.Positions.ListPositions(c.Request.Context(), "open")
		if err != nil {
			logger.Warnf("[api] portfolio alerts 读取持仓失败: %v", err)
		}
	}
	c.JSON(http.StatusOK, r.Risk.AnalyzePortfolio(entries, open))
}

func (r *Router) handleListPositions(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	positions, err := r.Positions.ListPositions(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
}

func (r *Router) handleAddPosition(c *gin.Context) {
	var pos types.OpenPosition
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(pos.Symbol) == "" || pos.Strike <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol 与 strike 必填"})
		return
	}
	id, err := r.Positions.AddPosition(c.Request.Context(), pos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (r *Router) handleGetPosition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pos, err := r.Positions.GetPosition(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (r *Router) handleDeletePosition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := r.Positions.DeletePosition(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type closePositionRequest struct {
	ClosePremium float64 `json:"close_premium"`
	CloseDate    string  `json:"close_date,omitempty"`
}

func (r *Router) handleClosePosition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req closePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CloseDate == "" {
		req.CloseDate = time.Now().Format("2006-01-02")
	}
	if err := r.Positions.ClosePosition(c.Request.Context(), id, req.ClosePremium, req.CloseDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

type wheelTransitionRequest struct {
	State types.WheelState `json:"state"`
	Note  string           `json:"note,omitempty"`
}

// handleWheelTransition 先用状态机校验迁移合法性，再落库。
func (r *Router) handleWheelTransition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req wheelTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pos, err := r.Positions.GetPosition(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	transition, err := r.tracker.Transition(&pos, req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Note != "" {
		transition.Note = req.Note
	}
	if err := r.Positions.UpdateWheelState(c.Request.Context(), id, req.State, transition); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transition)
}

func (r *Router) handleWheelPositions(c *gin.Context) {
	positions, err := r.Positions.ListWheelPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(positions))
	for _, pos := range positions {
		out = append(out, gin.H{
			"position":    pos,
			"state_label": wheel.StateLabel(pos.WheelState),
		})
	}
	c.JSON(http.StatusOK, gin.H{"positions": out, "count": len(out)})
}

func (r *Router) handleRollSuggestions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	spot, err := strconv.ParseFloat(c.Query("spot"), 64)
	if err != nil || spot <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "spot 参数必须为正数"})
		return
	}
	pos, err := r.Positions.GetPosition(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"position":   pos,
		"spot":       spot,
		"advice":     strategy.RollAdvice(pos, spot),
		"candidates": strategy.SuggestRolls(pos, spot),
	})
}

func (r *Router) handlePortfolioGreeks(c *gin.Context) {
	greeks, err := r.Positions.PortfolioGreeks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, greeks)
}

func (r *Router) handlePortfolioSummary(c *gin.Context) {
	summary, err := r.Positions.PortfolioSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (r *Router) handleHistoryList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := r.History.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (r *Router) handleHistoryDetail(c *gin.Context) {
	detail, err := r.History.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// handleHistoryReport 将一次历史运行渲染为 HTML 图表报告。
func (r *Router) handleHistoryReport(c *gin.Context) {
	detail, err := r.History.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	maxPayoffs, _ := strconv.Atoi(c.DefaultQuery("payoffs", "3"))
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := visual.RenderReport(c.Writer, detail.Opportunities, maxPayoffs); err != nil {
		logger.Errorf("[api] 渲染报告失败 run=%s err=%v", detail.RunID, err)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的持仓 ID"})
		return 0, false
	}
	return id, true
}
