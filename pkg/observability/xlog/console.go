package xlog

import (
	"io"
	"os"
	"sync"
)

// consoleSink 写入 Config.Console（默认 stdout）。
// console 与 formatted_console 只差格式化函数。
type consoleSink struct {
	cfg    Config
	format Formatter
	mu     sync.Mutex
	w      io.Writer
}

// 编译时接口检查
var _ Sink = (*consoleSink)(nil)

func newConsoleSink(cfg Config) (Sink, error) {
	return newConsole(cfg, cfg.Formatter), nil
}

func newFormattedConsoleSink(cfg Config) (Sink, error) {
	return newConsole(cfg, ReadableFormatter), nil
}

func newConsole(cfg Config, format Formatter) *consoleSink {
	w := cfg.Console
	if w == nil {
		w = os.Stdout
	}
	if format == nil {
		format = DefaultFormatter
	}
	return &consoleSink{cfg: cfg, format: format, w: w}
}

func (s *consoleSink) Enabled(md Metadata) bool {
	return s.cfg.Enabled(md)
}

// Log 单次写入一整行，锁保证多 goroutine 的行不交错。
func (s *consoleSink) Log(e Event) error {
	line := s.format(e, &s.cfg) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}

// Flush 仅在输出带缓冲（实现 Flush() error）时生效；stdout 无缓冲。
func (s *consoleSink) Flush() error {
	f, ok := s.w.(interface{ Flush() error })
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.Flush()
}
