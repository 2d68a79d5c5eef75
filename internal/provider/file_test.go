package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"osprey/internal/types"
)

const aaplSnapshot = `{
  "symbol": "aapl",
  "stock_price": 182.5,
  "next_earnings": "2025-07-31",
  "historical_closes": [180.1, 181.3, 182.5],
  "expiries": [
    {
      "expiry_date": "2025-07-18",
      "days_to_expiry": 30,
      "calls": [
        {"contract_symbol": "AAPL250718C190", "strike": 190, "bid": 3.3, "ask": 3.5, "volume": 1200, "open_interest": 5400, "implied_volatility": 0.28},
        {"strike": 0, "bid": 1.0, "ask": 1.1}
      ],
      "puts": [
        {"contract_symbol": "AAPL250718P175", "strike": 175, "bid": 2.1, "ask": 2.3, "volume": 900, "open_interest": 3100, "implied_volatility": 0.31, "in_the_money": false}
      ]
    }
  ]
}`

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileSource_Snapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL.json", aaplSnapshot)

	src, err := NewFileSource(dir)
	assert.NoError(t, err)

	snap, err := src.Snapshot(context.Background(), "aapl")
	assert.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, 182.5, snap.StockPrice)
	assert.Equal(t, "2025-07-31", snap.NextEarnings)
	assert.Len(t, snap.HistoricalCloses, 3)
	assert.Len(t, snap.Expiries, 1)

	exp := snap.Expiries[0]
	assert.Equal(t, "2025-07-18", exp.ExpiryDate)
	assert.Equal(t, 30, exp.DaysToExpiry)
	// 缺执行价的报价被跳过
	assert.Len(t, exp.Calls, 1)
	assert.Equal(t, types.Call, exp.Calls[0].Side)
	assert.Equal(t, 190.0, exp.Calls[0].Strike)
	assert.Equal(t, int64(5400), exp.Calls[0].OpenInterest)
	assert.Len(t, exp.Puts, 1)
	assert.Equal(t, types.Put, exp.Puts[0].Side)
	assert.Equal(t, 0.31, exp.Puts[0].ImpliedVolatility)
}

func TestFileSource_SnapshotValidation(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "BAD.json", `{"symbol": "BAD", "expiries": []}`)       // 缺 stock_price
	writeSnapshot(t, dir, "NEG.json", `{"symbol": "NEG", "stock_price": -1, "expiries": []}`)
	writeSnapshot(t, dir, "JUNK.json", `not json`)

	src, err := NewFileSource(dir)
	assert.NoError(t, err)

	ctx := context.Background()
	_, err = src.Snapshot(ctx, "BAD")
	assert.Error(t, err)
	_, err = src.Snapshot(ctx, "NEG")
	assert.Error(t, err)
	_, err = src.Snapshot(ctx, "JUNK")
	assert.Error(t, err)
	_, err = src.Snapshot(ctx, "MISSING")
	assert.Error(t, err)
}

func TestFileSource_DaysToExpiryFallback(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "TSLA.json", `{
  "symbol": "TSLA",
  "stock_price": 250,
  "expiries": [{"expiry_date": "2025-07-02", "puts": [{"strike": 240, "bid": 3.0, "ask": 3.2}]}]
}`)

	src, err := NewFileSource(dir)
	assert.NoError(t, err)
	src.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	snap, err := src.Snapshot(context.Background(), "TSLA")
	assert.NoError(t, err)
	assert.Equal(t, 30, snap.Expiries[0].DaysToExpiry)
}

func TestFileSource_Symbols(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "msft.json", aaplSnapshot)
	writeSnapshot(t, dir, "AAPL.json", aaplSnapshot)
	writeSnapshot(t, dir, "notes.txt", "ignore")
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	src, err := NewFileSource(dir)
	assert.NoError(t, err)

	symbols, err := src.Symbols(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestNewFileSource_BadDir(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFileSource(file)
	assert.Error(t, err)
}

func TestRateLimited_PassThrough(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL.json", aaplSnapshot)

	src, err := NewFileSource(dir)
	assert.NoError(t, err)

	limited := NewRateLimited(src, 100, 10)
	snap, err := limited.Snapshot(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)

	symbols, err := limited.Symbols(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL.json", aaplSnapshot)

	src, err := NewFileSource(dir)
	assert.NoError(t, err)

	// 令牌耗尽后取消的上下文直接失败
	limited := NewRateLimited(src, 0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())
	_, err = limited.Snapshot(ctx, "AAPL")
	assert.NoError(t, err)
	cancel()
	_, err = limited.Snapshot(ctx, "AAPL")
	assert.Error(t, err)
}
