package xlog

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
)

// recordSink 记录收到的事件，可注入错误。
type recordSink struct {
	mu       sync.Mutex
	events   []Event
	logErr   error
	flushErr error
	flushes  atomic.Int32
	closed   atomic.Bool
	reject   func(Metadata) bool
}

func (s *recordSink) Enabled(md Metadata) bool {
	return s.reject == nil || !s.reject(md)
}

func (s *recordSink) Log(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.logErr
}

func (s *recordSink) Flush() error {
	s.flushes.Add(1)
	return s.flushErr
}

func (s *recordSink) Close() error {
	if s.closed.Swap(true) {
		return errors.New("closed twice")
	}
	return nil
}

func (s *recordSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Message
	}
	return out
}

func (s *recordSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func readTestFile(path string) string {
	data, err := os.ReadFile(path) //#nosec G304 -- 测试路径
	if err != nil {
		return ""
	}
	return string(data)
}

// panicSink（定义见 dispatcher_test.go）在 Flush 与 Close 中 panic。
func (s *panicSink) Flush() error { panic("flush boom") }
func (s *panicSink) Close() error { panic("close boom") }
