package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProfileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
small_account:
  max_stock_price: 60
  min_delta: 0.2
conservative_income:
  min_profit_probability: 80
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := NewProfileLoader(path)
	assert.NoError(t, err)

	snap := l.Snapshot()
	assert.Len(t, snap.Profiles, 2)
	assert.Equal(t, int64(1), snap.Version)

	ov, err := l.Resolve("small_account")
	assert.NoError(t, err)
	assert.Equal(t, 60.0, *ov.MaxStockPrice)
	assert.Equal(t, 0.2, *ov.MinDelta)

	// 文件条目覆盖内置同名预设
	ov, err = l.Resolve("conservative_income")
	assert.NoError(t, err)
	assert.Equal(t, 80.0, *ov.MinProfitProbability)
	assert.Nil(t, ov.MaxDelta)

	// 文件中没有的名字回退到内置预设
	ov, err = l.Resolve("high_probability")
	assert.NoError(t, err)
	assert.Equal(t, 85.0, *ov.MinProfitProbability)

	_, err = l.Resolve("nope")
	assert.Error(t, err)

	ov, err = l.Resolve("")
	assert.NoError(t, err)
	assert.Nil(t, ov.MinDelta)
}

func TestNewProfileLoader_Invalid(t *testing.T) {
	_, err := NewProfileLoader("")
	assert.Error(t, err)

	_, err = NewProfileLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("a:\n  min_delta: 0.1\n"), 0o644))

	l, err := NewProfileLoader(path)
	assert.NoError(t, err)

	got := make(chan ProfileSnapshot, 1)
	l.Subscribe(func(snap ProfileSnapshot) { got <- snap })

	snap := <-got
	assert.Len(t, snap.Profiles, 1)
}
