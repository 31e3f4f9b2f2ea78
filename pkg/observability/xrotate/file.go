package xrotate

import (
	"sync"
	"time"

	"github.com/omeyang/xtail/pkg/util/xfile"
)

// File 单个固定路径的日志文件，可选按大小轮转为 <path>.old<N>。
//
// 一把互斥锁覆盖"检查大小 → 轮转 → 追加"整个序列，
// 其他 goroutine 不会观察到"已轮转但未写入"的中间状态。
type File struct {
	mu     sync.Mutex
	cfg    config
	h      *handle
	closed bool
}

// NewFile 打开 path 对应的日志文件。
//
// 构造顺序：路径规范化 → 创建父目录 → 可写性探测 → 打开。
// 不可写返回包装了 [ErrPermission] 的错误且不创建文件；
// 打开失败返回包装了 [ErrIO] 的错误。
func NewFile(path string, opts ...Option) (*File, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if err := prepare(safePath); err != nil {
		return nil, err
	}

	h, err := openHandle(&cfg, safePath, cfg.append)
	if err != nil {
		return nil, err
	}
	return &File{cfg: cfg, h: h}, nil
}

// Path 返回日志文件路径。
func (f *File) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.h.path
}

// Size 返回当前文件的已知大小。
func (f *File) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.h.size
}

// Write 实现 io.Writer 接口
func (f *File) Write(p []byte) (int, error) {
	return f.WriteAt(f.cfg.clock(), p)
}

// WriteAt 写入一行。单文件不按时间切分，t 被忽略。
//
// 达到大小上限时先轮转；轮转失败上报 OnError，当前行仍写入旧句柄。
// 追加失败原样返回。
func (f *File) WriteAt(_ time.Time, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}
	if ShouldRotate(f.h.size, f.cfg.maxSize) {
		f.cfg.reportError(f.rotateLocked())
	}
	return f.h.write(p)
}

// Rotate 手动触发按大小轮转，不检查大小上限。
func (f *File) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	return f.rotateLocked()
}

func (f *File) rotateLocked() error {
	nh, err := rotateHandle(&f.cfg, f.h)
	if err != nil {
		return err
	}
	f.h = nh
	return nil
}

// Sync 将已写入数据落盘。
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	return f.h.sync()
}

// Close 关闭文件。重复调用返回 [ErrClosed]。
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return f.h.close()
}
