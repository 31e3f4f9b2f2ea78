package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchOption 监视选项
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	onError  func(error)
}

// WithDebounce 设置防抖时间：窗口内的多次变更只触发一次重载。非正数被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithWatchErrorHandler 接收重载失败与 fsnotify 错误。未设置时这些错误被丢弃，
// 旧快照继续生效。
func WithWatchErrorHandler(fn func(error)) WatchOption {
	return func(o *watchOptions) {
		o.onError = fn
	}
}

// Watch 监视配置文件，变更后重载并调用 onChange，阻塞直到 ctx 取消。
//
// 监视的是文件所在目录而非文件本身：编辑器的原子保存（写临时文件再 rename）
// 会替换 inode，直接监视文件会丢失后续事件。
//
// onChange 与错误回调都在调用 Watch 的 goroutine 上执行，Watch 返回后不再触发。
// 适合作为 xrun.Group 的一个服务：
//
//	g.Go(func(ctx context.Context) error {
//	    return xconf.Watch(ctx, cfg, func(c xconf.Config) { ... })
//	})
func Watch(ctx context.Context, cfg Config, onChange func(Config), opts ...WatchOption) error {
	if cfg == nil || cfg.Path() == "" {
		return ErrNotReloadable
	}

	o := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("xconf: create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(cfg.Path())
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("xconf: watch %s: %w", dir, err)
	}
	name := filepath.Base(cfg.Path())

	report := func(err error) {
		if o.onError != nil {
			o.onError(err)
		}
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !affects(ev, name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			report(fmt.Errorf("xconf: watch: %w", err))

		case <-fire:
			fire = nil
			if err := cfg.Reload(); err != nil {
				report(err)
				continue
			}
			if onChange != nil {
				onChange(cfg)
			}
		}
	}
}

// affects 判断事件是否可能改变目标文件内容。
// Write 为原地修改，Create/Rename 覆盖原子保存。
func affects(ev fsnotify.Event, name string) bool {
	if filepath.Base(ev.Name) != name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// IsWatchStopped 判断 Watch 的返回值是否只是因 ctx 取消而正常退出。
func IsWatchStopped(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
