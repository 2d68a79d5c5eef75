package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"osprey/internal/logger"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "CLOSED"
	case breakerOpen:
		return "OPEN"
	case breakerHalfOpen:
		return "HALF-OPEN"
	}
	return "UNKNOWN"
}

// Breaker 在数据源外套一层熔断：连续失败达到阈值后直接拒绝请求，
// 冷却期过后放行一次探测请求决定是否恢复。
type Breaker struct {
	src       ChainSource
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

// NewBreaker 以 threshold 次连续失败、cooldown 冷却期包装数据源。
func NewBreaker(src ChainSource, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{src: src, threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *Breaker) Snapshot(ctx context.Context, symbol string) (ChainSnapshot, error) {
	if !b.allow() {
		return ChainSnapshot{}, fmt.Errorf("数据源熔断中 (%s)，稍后重试", symbol)
	}
	snap, err := b.src.Snapshot(ctx, symbol)
	if err != nil {
		b.recordFailure()
		return ChainSnapshot{}, err
	}
	b.recordSuccess()
	return snap, nil
}

func (b *Breaker) Symbols(ctx context.Context) ([]string, error) {
	return b.src.Symbols(ctx)
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.lastFailure) > b.cooldown {
			b.transition(breakerHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerHalfOpen {
		b.transition(breakerClosed)
	}
	b.failures = 0
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	switch b.state {
	case breakerClosed:
		if b.failures >= b.threshold {
			b.transition(breakerOpen)
		}
	case breakerHalfOpen:
		b.transition(breakerOpen)
	}
}

func (b *Breaker) transition(to breakerState) {
	from := b.state
	b.state = to
	logger.Warnf("provider: 数据源熔断状态 %s → %s (failures=%d/%d)", from, to, b.failures, b.threshold)
}
