package xrotate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
	"github.com/omeyang/xtail/pkg/util/xfile"
)

// 重开文件的重试参数
const (
	reopenAttempts = 3
	reopenDelay    = 10 * time.Millisecond
)

// handle 一个打开的日志文件及其当前大小。
// 所有方法都要求调用方持有所属 Rotator 的锁。
type handle struct {
	path string
	f    *os.File
	size int64
}

// prepare 创建父目录并在打开前探测可写性。
// 目标文件已存在时目录仍需可写，否则之后的轮转与按日切换都会失败。
func prepare(path string) error {
	if err := xfile.EnsureDir(path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %w", ErrPermission, err)
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := xfile.CheckWritable(path); err != nil {
		if errors.Is(err, xfile.ErrNotWritable) {
			return fmt.Errorf("%w: %w", ErrPermission, err)
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// openHandle 打开 path。appendMode 为 false 时截断已有内容。
func openHandle(cfg *config, path string, appendMode bool) (*handle, error) {
	open := cfg.openFile
	if open == nil {
		open = os.OpenFile
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	//#nosec G304 -- 路径已经 SanitizePath 规范化
	f, err := open(path, flags, cfg.fileMode)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %w", ErrPermission, path, err)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // Stat 失败时关闭错误无需处理
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	return &handle{path: path, f: f, size: info.Size()}, nil
}

// reopen 以追加模式打开 path，瞬时失败时按固定间隔重试。
func reopen(cfg *config, path string) (*handle, error) {
	var h *handle
	err := retry.New(
		retry.Attempts(reopenAttempts),
		retry.Delay(reopenDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		var err error
		h, err = openHandle(cfg, path, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// write 单次追加写入，累计大小。
func (h *handle) write(p []byte) (int, error) {
	n, err := h.f.Write(p)
	h.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %w", ErrIO, h.path, err)
	}
	return n, nil
}

func (h *handle) sync() error {
	if err := h.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrIO, h.path, err)
	}
	return nil
}

func (h *handle) close() error {
	if err := h.f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, h.path, err)
	}
	return nil
}

// rotateHandle 对 h 执行按大小轮转：后移备份、重开空文件、关闭旧句柄。
//
// 失败时返回 nil 与错误，调用方继续使用 h：备份后移失败时 h 仍指向原文件；
// 重开失败时 h 已指向 .old1，当前行写入 .old1 而不是丢失。
func rotateHandle(cfg *config, h *handle) (*handle, error) {
	_, span := xmetrics.Start(context.Background(), cfg.observer, xmetrics.SpanOptions{
		Component: "xrotate",
		Operation: "rotate",
		Attrs: []xmetrics.Attr{
			xmetrics.String("path", h.path),
			xmetrics.Int64("size", h.size),
		},
	})

	nh, err := func() (*handle, error) {
		if err := ShiftBackups(h.path, cfg.maxBackups); err != nil {
			return nil, err
		}
		nh, err := reopen(cfg, h.path)
		if err != nil {
			return nil, err
		}
		if err := h.close(); err != nil {
			cfg.reportError(err)
		}
		return nh, nil
	}()
	res := xmetrics.Result{Err: err}
	if err == nil {
		res.Bytes = h.size
	}
	span.End(res)
	return nh, err
}
