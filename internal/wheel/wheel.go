// Package wheel 跟踪 wheel 收入循环（卖 Put → 被行权 → 卖 Call → 被叫走）的生命周期。
// 状态只通过显式调用迁移，引擎不会根据时间或价格自动推进。
package wheel

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"osprey/internal/logger"
	"osprey/internal/types"
)

// next 是一轮循环的标准后继状态。
var next = map[types.WheelState]types.WheelState{
	types.WheelIdle:       types.WheelSellPut,
	types.WheelSellPut:    types.WheelAssigned,
	types.WheelAssigned:   types.WheelSellCall,
	types.WheelSellCall:   types.WheelCalledAway,
	types.WheelCalledAway: types.WheelIdle,
}

// Next 返回状态的标准后继。
func Next(s types.WheelState) (types.WheelState, bool) {
	n, ok := next[s]
	return n, ok
}

// Tracker 保存每个持仓的迁移日志。零值即可用。
type Tracker struct {
	mu  sync.Mutex
	log map[int64][]types.WheelTransition
}

func NewTracker() *Tracker {
	return &Tracker{log: make(map[int64][]types.WheelTransition)}
}

// Transition 将持仓迁移到 newState 并记录一条带时间戳的日志。
// 目标状态不在状态集内时返回错误且不改动持仓。引擎只校验状态集成员资格；
// 跳过标准顺序的迁移（如提前回到 idle）允许但会告警。
func (t *Tracker) Transition(pos *types.OpenPosition, newState types.WheelState) (types.WheelTransition, error) {
	if pos == nil {
		return types.WheelTransition{}, fmt.Errorf("持仓不能为空")
	}
	if !types.ValidWheelState(newState) {
		return types.WheelTransition{}, fmt.Errorf("无效的 wheel 状态: %s", newState)
	}

	from := pos.WheelState
	if from == "" {
		from = types.WheelIdle
	}
	if canonical, ok := next[from]; ok && canonical != newState {
		logger.Warnf("wheel 非标准迁移 %s: %s → %s（标准后继为 %s）", pos.Symbol, from, newState, canonical)
	}

	tr := types.WheelTransition{
		ID:        uuid.NewString(),
		From:      from,
		To:        newState,
		Timestamp: time.Now(),
	}
	pos.WheelState = newState

	t.mu.Lock()
	if t.log == nil {
		t.log = make(map[int64][]types.WheelTransition)
	}
	t.log[pos.ID] = append(t.log[pos.ID], tr)
	t.mu.Unlock()

	return tr, nil
}

// History 返回持仓的迁移日志副本。
func (t *Tracker) History(positionID int64) []types.WheelTransition {
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.log[positionID]
	out := make([]types.WheelTransition, len(src))
	copy(out, src)
	return out
}

// StateLabel 返回状态的展示文案。
func StateLabel(s types.WheelState) string {
	switch s {
	case types.WheelSellPut:
		return "卖 Put（等待行权或过期）"
	case types.WheelAssigned:
		return "已被行权（持有股票）"
	case types.WheelSellCall:
		return "卖 Call（等待被叫走或过期）"
	case types.WheelCalledAway:
		return "已被叫走（一轮完成）"
	case types.WheelIdle:
		return "空闲"
	}
	return string(s)
}
