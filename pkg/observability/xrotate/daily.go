package xrotate

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
	"github.com/omeyang/xtail/pkg/util/xfile"
)

// Daily 按日期切分的日志文件：<dir>/<YYYY-MM-DD>.log。
//
// 日期切换在写入时按事件时间判断，不依赖定时器：空闲多天后的第一次写入
// 直接切到当天文件，中间日期不会产生空文件。日期只前进不后退。
//
// 同一把锁覆盖"日期切换 / 按大小轮转 → 保留期清理 → 追加"整个序列，
// 清理因此不会与写入竞争。
type Daily struct {
	mu     sync.Mutex
	cfg    config
	dir    string
	key    string
	h      *handle
	pruner Pruner
	closed bool
}

// NewDaily 在 dir 下打开当前日期的日志文件（始终追加）。
//
// 构造检查与 [NewFile] 相同：不可写返回包装了 [ErrPermission] 的错误。
func NewDaily(dir string, opts ...Option) (*Daily, error) {
	if dir == "" {
		return nil, ErrEmptyFilename
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	key := DateKey(cfg.clock())
	safePath, err := xfile.SanitizePath(filepath.Join(dir, DailyName(key)))
	if err != nil {
		return nil, err
	}
	if err := prepare(safePath); err != nil {
		return nil, err
	}

	h, err := openHandle(&cfg, safePath, true)
	if err != nil {
		return nil, err
	}

	d := &Daily{
		cfg: cfg,
		dir: filepath.Dir(safePath),
		key: key,
		h:   h,
	}
	d.pruner = Pruner{
		Dir:           d.dir,
		RetentionDays: cfg.retentionDays,
		Match:         MatchDaily,
		Now:           cfg.clock,
	}
	return d, nil
}

// Dir 返回日志目录。
func (d *Daily) Dir() string {
	return d.dir
}

// Path 返回当前打开的文件路径。
func (d *Daily) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.h.path
}

// DateKey 返回当前文件对应的日期键。
func (d *Daily) DateKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.key
}

// Write 以时钟当前时间写入一行。
func (d *Daily) Write(p []byte) (int, error) {
	return d.WriteAt(d.cfg.clock(), p)
}

// WriteAt 以事件时间 t 写入一行。
//
// 顺序：t 的日期晚于当前日期时切换文件（被放弃的文件不再做按大小轮转）；
// 否则检查大小上限并轮转。随后按保留期清理，最后单次追加。
// 切换、轮转与清理失败上报 OnError，不影响当前行；追加失败原样返回。
func (d *Daily) WriteAt(t time.Time, p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}

	if target := DateKey(t); NeedsSwitch(d.key, target) {
		d.cfg.reportError(d.switchLocked(target))
	} else if ShouldRotate(d.h.size, d.cfg.maxSize) {
		d.cfg.reportError(d.rotateLocked())
	}

	if d.cfg.retentionDays > 0 {
		d.cfg.reportError(d.pruneLocked())
	}

	return d.h.write(p)
}

// switchLocked 打开 target 日期的文件并替换当前句柄。
// 打开失败时保留旧句柄与旧日期，下一次写入会再次尝试切换。
func (d *Daily) switchLocked(target string) error {
	path := filepath.Join(d.dir, DailyName(target))
	_, span := xmetrics.Start(context.Background(), d.cfg.observer, xmetrics.SpanOptions{
		Component: "xrotate",
		Operation: "switch",
		Attrs: []xmetrics.Attr{
			xmetrics.String("from", d.key),
			xmetrics.String("to", target),
		},
	})

	nh, err := reopen(&d.cfg, path)
	if err != nil {
		span.End(xmetrics.Result{Err: err})
		return err
	}

	old := d.h
	d.h, d.key = nh, target
	err = old.close()
	span.End(xmetrics.Result{Err: err, Bytes: old.size})
	return err
}

func (d *Daily) rotateLocked() error {
	nh, err := rotateHandle(&d.cfg, d.h)
	if err != nil {
		return err
	}
	d.h = nh
	return nil
}

func (d *Daily) pruneLocked() error {
	_, span := xmetrics.Start(context.Background(), d.cfg.observer, xmetrics.SpanOptions{
		Component: "xrotate",
		Operation: "prune",
		Attrs:     []xmetrics.Attr{xmetrics.String("dir", d.dir)},
	})

	d.pruner.Keep = filepath.Base(d.h.path)
	removed, err := d.pruner.Prune()
	span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("removed", len(removed))}})
	return err
}

// Prune 立即执行一次保留期清理，返回被删除的文件。未配置保留期时不做任何事。
func (d *Daily) Prune() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	d.pruner.Keep = filepath.Base(d.h.path)
	return d.pruner.Prune()
}

// Rotate 手动触发当前日期文件的按大小轮转。
func (d *Daily) Rotate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.rotateLocked()
}

// Sync 将已写入数据落盘。
func (d *Daily) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.h.sync()
}

// Close 关闭当前文件。重复调用返回 [ErrClosed]。
func (d *Daily) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return d.h.close()
}
