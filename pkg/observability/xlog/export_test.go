package xlog

import (
	"log/slog"
	"testing"
)

// resetInstalled 清除已安装的 Dispatcher，测试结束时恢复 slog 默认 logger。
// 调用它的测试不可使用 t.Parallel()。
func resetInstalled(t testing.TB) {
	t.Helper()
	prev := slog.Default()
	uninstall := func() {
		installMu.Lock()
		installed.Store(nil)
		installMu.Unlock()
	}
	uninstall()
	t.Cleanup(func() {
		uninstall()
		slog.SetDefault(prev)
	})
}

// customSink 把 Sink 包装为 Factory，供测试登记 mock。
func customSink(s Sink) Factory {
	return func(Config) (Sink, error) { return s, nil }
}
