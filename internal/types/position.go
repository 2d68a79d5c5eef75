package types

import "time"

// WheelState 表示 wheel 收入循环中的生命周期状态。
type WheelState string

const (
	WheelIdle       WheelState = "idle"
	WheelSellPut    WheelState = "sell_put"
	WheelAssigned   WheelState = "assigned"
	WheelSellCall   WheelState = "sell_call"
	WheelCalledAway WheelState = "called_away"
)

// ValidWheelState 校验状态是否在状态集内。
func ValidWheelState(s WheelState) bool {
	switch s {
	case WheelIdle, WheelSellPut, WheelAssigned, WheelSellCall, WheelCalledAway:
		return true
	}
	return false
}

// WheelTransition 是一次显式状态迁移的记录。
type WheelTransition struct {
	ID        string     `json:"id"`
	From      WheelState `json:"from"`
	To        WheelState `json:"to"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note,omitempty"`
}

// OpenPosition 是一笔被跟踪的期权卖方持仓。
// WheelState 为空表示未参与 wheel 跟踪；状态只通过显式迁移调用改变。
type OpenPosition struct {
	ID                 int64             `json:"id"`
	Symbol             string            `json:"symbol"`
	Strategy           StrategyKind      `json:"strategy_type"`
	Strike             float64           `json:"strike"`
	ExpiryDate         string            `json:"expiry_date"` // YYYY-MM-DD
	Contracts          int               `json:"contracts"`
	PremiumPerContract float64           `json:"premium_per_contract"`
	OpenDate           string            `json:"open_date"`
	CloseDate          string            `json:"close_date,omitempty"`
	ClosePremium       float64           `json:"close_premium,omitempty"`
	Status             string            `json:"status"`
	Notes              string            `json:"notes,omitempty"`
	WheelState         WheelState        `json:"wheel_state,omitempty"`
	WheelHistory       []WheelTransition `json:"wheel_history,omitempty"`
	Greeks             Greeks            `json:"greeks"`
}

// DaysToExpiry 以给定时刻计算剩余天数；日期不可解析时返回 0 与 false。
func (p OpenPosition) DaysToExpiry(now time.Time) (int, bool) {
	expiry, err := time.Parse("2006-01-02", p.ExpiryDate)
	if err != nil {
		return 0, false
	}
	return int(expiry.Sub(now).Hours() / 24), true
}
