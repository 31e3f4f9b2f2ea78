package xrotate

import (
	"context"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
	"github.com/omeyang/xtail/pkg/util/xfile"
)

// lumberjackRotator 基于 lumberjack 的 Rotator 实现
//
// 与 [File] 互为替代：按 MB 粒度轮转，备份名带时间戳
// （<name>-<timestamp>.<ext>），可选 gzip 压缩，按数量与天数清理。
// 读取的选项：WithMaxSize（向上取整到 MB，0 时使用 [DefaultMaxSizeMB]）、
// WithMaxBackups、WithRetentionDays（映射为 MaxAge）、WithCompress、
// WithLocalTime、WithObserver。
type lumberjackRotator struct {
	logger *lumberjack.Logger
	cfg    config
	closed atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的日志轮转器
//
// 构造检查与 [NewFile] 相同：路径规范化、创建父目录、可写性探测。
// lumberjack 延迟到首次写入才打开文件。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := prepare(safePath); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    lumberjackSizeMB(cfg.maxSize),
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.retentionDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		cfg: cfg,
	}, nil
}

// lumberjackSizeMB 字节数向上取整为 MB；0 使用默认值。
func lumberjackSizeMB(bytes int64) int {
	if bytes <= 0 {
		return DefaultMaxSizeMB
	}
	return int((bytes + megabyte - 1) / megabyte)
}

// Write 实现 io.Writer 接口
func (r *lumberjackRotator) Write(p []byte) (n int, err error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err = r.logger.Write(p)
	if err != nil {
		// 设计决策: Write 与 Close 存在 TOCTOU 窗口：Write 通过 closed 前置检查后，
		// Close 可能在 logger.Write 执行期间完成。此处后置检查确保调用者始终得到
		// ErrClosed（而非底层 I/O 错误），保持 ErrClosed 契约的可靠性。
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}
	return n, nil
}

// WriteAt lumberjack 只按大小轮转，t 被忽略。
func (r *lumberjackRotator) WriteAt(_ time.Time, p []byte) (int, error) {
	return r.Write(p)
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}

	_, span := xmetrics.Start(context.Background(), r.cfg.observer, xmetrics.SpanOptions{
		Component: "xrotate",
		Operation: "rotate",
		Attrs:     []xmetrics.Attr{xmetrics.String("path", r.logger.Filename)},
	})
	err := r.logger.Rotate()
	span.End(xmetrics.Result{Err: err})

	if err != nil && r.closed.Load() {
		// 设计决策: 与 Write 相同的 TOCTOU 后置检查（见 Write 注释）
		return ErrClosed
	}
	return err
}

// Sync lumberjack 每次 Write 直接写入 *os.File，无用户态缓冲；
// 这里只做关闭检查，不触发 fsync（lumberjack 不暴露底层文件）。
func (r *lumberjackRotator) Sync() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close 实现 io.Closer 接口
//
// 设计决策: Close 使用 CAS 原语标记关闭状态，首次 Close 失败后不重置标记。
// 如果底层 Close 返回错误，重试调用会得到 ErrClosed 而非重新尝试关闭。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}
