package xlog

import (
	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// fileSink 把格式化后的行交给 xrotate 写入器。
//
// 轮转、切换与保留期清理都在写入器的锁内完成；
// 这里只负责格式化，并用事件时间驱动按日切换。
type fileSink struct {
	cfg Config
	w   xrotate.Rotator
}

// 编译时接口检查
var _ Sink = (*fileSink)(nil)

func newSingleFileSink(path string, appendMode bool) Factory {
	return func(cfg Config) (Sink, error) {
		opts := append(cfg.rotateOptions(), xrotate.WithAppend(appendMode))
		w, err := xrotate.NewFile(path, opts...)
		if err != nil {
			return nil, err
		}
		return &fileSink{cfg: cfg, w: w}, nil
	}
}

func newDailyFileSink(dir string) Factory {
	return func(cfg Config) (Sink, error) {
		w, err := xrotate.NewDaily(dir, cfg.rotateOptions()...)
		if err != nil {
			return nil, err
		}
		return &fileSink{cfg: cfg, w: w}, nil
	}
}

func newLumberjackSink(path string, extra []xrotate.Option) Factory {
	return func(cfg Config) (Sink, error) {
		opts := append(cfg.rotateOptions(), extra...)
		w, err := xrotate.NewLumberjack(path, opts...)
		if err != nil {
			return nil, err
		}
		return &fileSink{cfg: cfg, w: w}, nil
	}
}

func (s *fileSink) Enabled(md Metadata) bool {
	return s.cfg.Enabled(md)
}

// Log 追加一行。写入器不带用户态缓冲，返回时数据已交给内核。
// e.Time 已由 Dispatcher 补齐，决定按日文件的日期。
func (s *fileSink) Log(e Event) error {
	_, err := s.w.WriteAt(e.Time, []byte(s.cfg.format(e)+"\n"))
	return err
}

// Flush fsync 当前文件。
func (s *fileSink) Flush() error {
	return s.w.Sync()
}

// Close 关闭底层写入器。
func (s *fileSink) Close() error {
	return s.w.Close()
}
