package xlog

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 进程内安装
//
// 一个进程只安装一个 Dispatcher，安装后同时接管 slog 默认 logger。
// 库代码推荐显式持有 *Dispatcher；全局函数面向应用入口与脚手架。
// =============================================================================

// installed 已安装的 Dispatcher（并发安全）
var installed atomic.Pointer[Dispatcher]

// installMu 串行化 Install，保证"检查 → 安装 → slog.SetDefault"是一个整体
var installMu sync.Mutex

// Install 将 d 安装为进程内唯一的 Dispatcher，并调用 slog.SetDefault。
//
// 已安装过时返回 [ErrAlreadyInstalled]，原安装保持不变。
func Install(d *Dispatcher) error {
	if d == nil {
		return ErrNilDispatcher
	}

	installMu.Lock()
	defer installMu.Unlock()

	if installed.Load() != nil {
		return ErrAlreadyInstalled
	}
	installed.Store(d)
	slog.SetDefault(slog.New(d.Handler()))
	return nil
}

// Installed 返回已安装的 Dispatcher，未安装时返回 nil。
func Installed() *Dispatcher {
	return installed.Load()
}

// =============================================================================
// 便利函数：target + printf 风格消息，安装前调用为空操作
// =============================================================================

// logf 内部辅助函数，正确处理全局函数的栈帧跳过
//
// 过滤在格式化之前完成，被拒绝的事件不产生 Sprintf 开销。
//
//go:noinline
func logf(level Level, target, format string, args []any) {
	d := installed.Load()
	if d == nil {
		return
	}
	if !d.Enabled(Metadata{Level: level, Target: target}) || !d.levelEnabled(level) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	e := Event{Time: d.clock(), Level: level, Target: target, Message: msg}

	// skip=3: runtime.Callers(0) → logf(1) → Info/Log 等(2) → 业务代码(3)
	var pcs [1]uintptr
	if runtime.Callers(3, pcs[:]) > 0 {
		c := d.callers.resolve(pcs[0])
		e.File, e.Line = c.file, c.line
	}
	d.Log(e)
}

// Log 使用已安装的 Dispatcher 记录指定级别的日志
func Log(level Level, target, format string, args ...any) {
	logf(level, target, format, args)
}

// Trace 使用已安装的 Dispatcher 记录 Trace 级别日志
func Trace(target, format string, args ...any) {
	logf(LevelTrace, target, format, args)
}

// Debug 使用已安装的 Dispatcher 记录 Debug 级别日志
func Debug(target, format string, args ...any) {
	logf(LevelDebug, target, format, args)
}

// Info 使用已安装的 Dispatcher 记录 Info 级别日志
func Info(target, format string, args ...any) {
	logf(LevelInfo, target, format, args)
}

// Warn 使用已安装的 Dispatcher 记录 Warn 级别日志
func Warn(target, format string, args ...any) {
	logf(LevelWarn, target, format, args)
}

// Error 使用已安装的 Dispatcher 记录 Error 级别日志
func Error(target, format string, args ...any) {
	logf(LevelError, target, format, args)
}

// Flush flush 已安装的 Dispatcher，未安装时返回 nil。
func Flush() error {
	if d := installed.Load(); d != nil {
		return d.Flush()
	}
	return nil
}
