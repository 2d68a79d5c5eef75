// Package loader 加载筛选预设文件并监听热更新。
package loader

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"osprey/internal/logger"
	"osprey/internal/screener"
)

// ProfileSnapshot 对外暴露的只读快照。
type ProfileSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Profiles map[string]screener.Overrides
}

// ChangeListener 在预设文件变更时被调用。
type ChangeListener func(ProfileSnapshot)

// ProfileLoader 负责从 YAML 文件加载命名筛选预设，并监听 FS 事件热更新。
// 内置预设（screener.Preset）始终可用，文件中的同名条目覆盖内置值。
type ProfileLoader struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  ProfileSnapshot
	listeners []ChangeListener
}

// NewProfileLoader 读取预设文件并开始监听变更。
func NewProfileLoader(path string) (*ProfileLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile loader requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile config failed: %w", err)
	}
	l := &ProfileLoader{path: path, v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := l.reload(); err != nil {
			logger.Errorf("profile reload failed (%s): %v", evt.Name, err)
			return
		}
		l.notify()
	})
	v.WatchConfig()
	return l, nil
}

func (l *ProfileLoader) reload() error {
	profiles, err := screener.LoadProfiles(l.path)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.snapshot = ProfileSnapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Profiles: profiles,
	}
	l.mu.Unlock()
	logger.Infof("筛选预设已加载: %s (%d 条)", l.path, len(profiles))
	return nil
}

// Snapshot 返回当前快照（浅拷贝 map）。
func (l *ProfileLoader) Snapshot() ProfileSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSnapshot(l.snapshot)
}

// Resolve 按名称取预设：优先文件条目，其次内置预设。
func (l *ProfileLoader) Resolve(name string) (screener.Overrides, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return screener.Overrides{}, nil
	}
	l.mu.RLock()
	o, ok := l.snapshot.Profiles[name]
	l.mu.RUnlock()
	if ok {
		return o, nil
	}
	return screener.Preset(name)
}

// Subscribe 注册监听器，并立即收到一次完整快照。
func (l *ProfileLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := cloneSnapshot(l.snapshot)
	l.mu.Unlock()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("profile listener panic: %v", r)
			}
		}()
		fn(snap)
	}()
}

func (l *ProfileLoader) notify() {
	l.mu.RLock()
	snap := cloneSnapshot(l.snapshot)
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("profile listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(s ProfileSnapshot) ProfileSnapshot {
	out := ProfileSnapshot{Version: s.Version, LoadedAt: s.LoadedAt, Profiles: make(map[string]screener.Overrides, len(s.Profiles))}
	for k, v := range s.Profiles {
		out.Profiles[k] = v
	}
	return out
}
