package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key，供经 [Dispatcher.Handler] 写日志的代码保持字段名一致。
// KeyTarget 见 handler.go。
const (
	// KeyError 错误
	KeyError = "error"
	// KeyDuration 耗时
	KeyDuration = "duration"
	// KeyCount 计数
	KeyCount = "count"
	// KeyComponent 组件名
	KeyComponent = "component"
	// KeyOperation 操作名
	KeyOperation = "operation"
	// KeyPath 文件路径
	KeyPath = "path"
	// KeyDirs 日志目录列表
	KeyDirs = "dirs"
	// KeyRetentionDays 保留天数
	KeyRetentionDays = "retention_days"
	// KeySink Sink 类型
	KeySink = "sink"
)

// Err 错误属性。err 为 nil 时返回空属性，slog 会忽略它。
//
//	logger.Warn("prune failed", xlog.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性，值为 time.Duration 的字符串形式。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名属性。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 计数属性。
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Path 文件路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Dirs 目录列表属性，渲染为 "[a b]"。
func Dirs(dirs []string) slog.Attr {
	return slog.Any(KeyDirs, dirs)
}

// RetentionDays 保留天数属性。
func RetentionDays(days int) slog.Attr {
	return slog.Int(KeyRetentionDays, days)
}

// SinkAttr Sink 类型属性。
func SinkAttr(kind SinkKind) slog.Attr {
	return slog.String(KeySink, string(kind))
}
