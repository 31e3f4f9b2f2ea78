package xlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
)

// activeSink 运行期的 Sink：构造好的实例与其级别，生命周期与 Dispatcher 相同。
type activeSink struct {
	kind  SinkKind
	level Level
	sink  Sink
}

// accepts 先比较 Sink 级别，再询问 Sink 自身。
func (s *activeSink) accepts(md Metadata) bool {
	return s.level.Allows(md.Level) && s.sink.Enabled(md)
}

// Dispatcher 运行期的日志分发器
//
// Sink 集合在 Build 后不可变，路由不加锁；每个 Sink 自己保证写入互斥。
// 所有方法在调用方 goroutine 上同步执行，没有队列也没有后台 goroutine。
type Dispatcher struct {
	sinks    []activeSink
	levels   []Level
	targets  []string
	clock    func() time.Time
	onError  func(error)
	observer xmetrics.Observer
	callers  *callerCache

	errorCount     atomic.Uint64 // 内部错误计数器（用于监控/测试）
	inErrorHandler atomic.Bool   // 防止 onError 递归调用
	closeOnce      sync.Once
	closeErr       error
}

func newDispatcher(cfg Config, sinks []activeSink) *Dispatcher {
	return &Dispatcher{
		sinks:    sinks,
		levels:   cfg.Levels,
		targets:  cfg.Targets,
		clock:    cfg.Clock,
		onError:  cfg.OnError,
		observer: cfg.Observer,
		callers:  newCallerCache(callerCacheSize),
	}
}

// Enabled 全局过滤：级别白名单（成员判断）与 target 前缀白名单。
// 未配置的白名单不限制。
func (d *Dispatcher) Enabled(md Metadata) bool {
	if len(d.levels) > 0 && !slices.Contains(d.levels, md.Level) {
		return false
	}
	if len(d.targets) == 0 {
		return true
	}
	for _, prefix := range d.targets {
		if strings.HasPrefix(md.Target, prefix) {
			return true
		}
	}
	return false
}

// levelEnabled 在 target 未知时（slog.Handler.Enabled）判断级别是否可能被投递。
func (d *Dispatcher) levelEnabled(level Level) bool {
	if len(d.levels) > 0 && !slices.Contains(d.levels, level) {
		return false
	}
	for i := range d.sinks {
		if d.sinks[i].level.Allows(level) {
			return true
		}
	}
	return false
}

// Log 分发一条事件。
func (d *Dispatcher) Log(e Event) {
	d.LogContext(context.Background(), e)
}

// LogContext 分发一条事件；ctx 只用于观测跨度的父子关系。
//
// 通过全局过滤后，按注册顺序投递给级别与 Enabled 都接受的 Sink。
// 零值 Time 以配置的时钟补齐，所有 Sink 看到同一时间戳。
// 某个 Sink 失败（含 panic）只计数并回调 OnError，后续 Sink 照常写入。
func (d *Dispatcher) LogContext(ctx context.Context, e Event) {
	md := e.Metadata()
	if !d.Enabled(md) {
		return
	}
	if e.Time.IsZero() {
		e.Time = d.clock()
	}
	for i := range d.sinks {
		s := &d.sinks[i]
		if !s.accepts(md) {
			continue
		}
		if err := d.write(ctx, s, e); err != nil {
			d.handleError(fmt.Errorf("xlog: %s sink #%d: %w", s.kind, i, err))
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, s *activeSink, e Event) error {
	if d.observer == nil {
		return safeLog(s.sink, e)
	}
	_, span := xmetrics.Start(ctx, d.observer, xmetrics.SpanOptions{
		Component: "xlog",
		Operation: "sink.write",
		Attrs: []xmetrics.Attr{
			xmetrics.Sink(string(s.kind)),
			xmetrics.String("level", e.Level.String()),
		},
	})
	err := safeLog(s.sink, e)
	res := xmetrics.Result{Err: err}
	if errors.Is(err, ErrSinkSuspended) {
		res.Status = xmetrics.StatusSkipped
	}
	span.End(res)
	return err
}

// safeLog 调用 Sink.Log，把 panic 转为错误。
//
// 设计决策: 用户 Sink 由宿主应用提供，其 panic 不得沿日志调用链扩散到业务代码。
func safeLog(s Sink, e Event) (err error) {
	defer recoverSink(&err)
	return s.Log(e)
}

// safeFlush 与 safeLog 相同，作用于 Sink.Flush。
func safeFlush(s Sink) (err error) {
	defer recoverSink(&err)
	return s.Flush()
}

// safeClose 与 safeLog 相同，作用于 io.Closer.Close。
func safeClose(c io.Closer) (err error) {
	defer recoverSink(&err)
	return c.Close()
}

func recoverSink(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("xlog: sink panic: %v", r)
	}
}

// handleError 处理内部错误（Sink 写入失败，以及文件 Sink 的轮转、切换与清理失败）
// 内置递归保护：如果 onError 回调内部触发日志错误，不会导致无限递归。
// 内置 panic 隔离：回调 panic 不会扩散到业务调用链。
//
// 设计决策: CAS 保护导致并发期间部分错误跳过 onError 回调，这是有意为之。
// errorCount 仍计入所有错误（用于监控），onError 回调定位为 best-effort 通知。
func (d *Dispatcher) handleError(err error) {
	d.errorCount.Add(1)
	if d.onError == nil {
		return
	}
	if d.inErrorHandler.CompareAndSwap(false, true) {
		defer d.inErrorHandler.Store(false)
		d.safeOnError(err)
	}
}

// safeOnError 安全执行 onError 回调，回调 panic 被捕获并计入错误计数。
func (d *Dispatcher) safeOnError(err error) {
	defer func() {
		if r := recover(); r != nil {
			d.errorCount.Add(1)
		}
	}()
	d.onError(err)
}

// ErrorCount 返回累计的内部错误数（Sink 写入失败、文件轮转类失败与回调 panic）。
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errorCount.Load()
}

// Flush 按注册顺序 flush 每个 Sink；某个失败不影响其余，错误合并返回。
func (d *Dispatcher) Flush() error {
	var span xmetrics.Span = xmetrics.NoopSpan{}
	if d.observer != nil {
		_, span = xmetrics.Start(context.Background(), d.observer, xmetrics.SpanOptions{
			Component: "xlog",
			Operation: "flush",
			Attrs:     []xmetrics.Attr{xmetrics.Int("sinks", len(d.sinks))},
		})
	}

	var errs []error
	for i := range d.sinks {
		s := &d.sinks[i]
		if err := safeFlush(s.sink); err != nil {
			errs = append(errs, fmt.Errorf("xlog: flush %s sink #%d: %w", s.kind, i, err))
		}
	}
	err := errors.Join(errs...)
	span.End(xmetrics.Result{Err: err})
	return err
}

// Close 先 flush，再关闭实现了 io.Closer 的 Sink。重复调用返回首次结果。
//
// 关闭后仍可调用 Log，文件 Sink 的写入会因已关闭而计入错误。
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = errors.Join(d.Flush(), closeSinks(d.sinks))
	})
	return d.closeErr
}

// Sinks 返回按注册顺序排列的 Sink 类型。
func (d *Dispatcher) Sinks() []SinkKind {
	kinds := make([]SinkKind, len(d.sinks))
	for i := range d.sinks {
		kinds[i] = d.sinks[i].kind
	}
	return kinds
}

// closeSinks 关闭实现了 io.Closer 的 Sink，错误合并返回。
func closeSinks(sinks []activeSink) error {
	var errs []error
	for i := range sinks {
		if c, ok := sinks[i].sink.(io.Closer); ok {
			if err := safeClose(c); err != nil {
				errs = append(errs, fmt.Errorf("xlog: close %s sink #%d: %w", sinks[i].kind, i, err))
			}
		}
	}
	return errors.Join(errs...)
}
