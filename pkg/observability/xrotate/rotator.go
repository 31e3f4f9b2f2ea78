package xrotate

import (
	"io"
	"time"
)

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// 编译时断言：各实现满足 Rotator
var (
	_ Rotator = (*File)(nil)
	_ Rotator = (*Daily)(nil)
	_ Rotator = (*lumberjackRotator)(nil)
)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接用于任何接受 io.Writer 或
// io.WriteCloser 的场景（如 xlog 的文件 Sink）。
// 所有实现都必须是并发安全的。
//
// 扩展新实现时，必须满足以下约定：
//   - 一次 Write/WriteAt 调用内的轮转检查与追加写入处于同一临界区
//   - 轮转失败不得丢弃当前行：保留旧句柄继续写入，错误交给 OnError
//   - Close 后调用 Write、WriteAt、Rotate 或 Sync 应返回 [ErrClosed]
type Rotator interface {
	// Write 以当前时钟时间写入一行日志数据
	Write(p []byte) (n int, err error)

	// WriteAt 以事件时间 t 写入一行日志数据。
	// 按日期切分的实现用 t 决定目标文件；其他实现忽略 t。
	WriteAt(t time.Time, p []byte) (n int, err error)

	// Rotate 手动触发按大小的轮转
	Rotate() error

	// Sync 将已写入数据落盘。无写入时重复调用不修改文件内容。
	Sync() error

	// Close 关闭轮转器，释放资源
	// 重复调用应返回 [ErrClosed]
	Close() error
}
