// xlog.go 定义核心接口：Sink 与 Factory
//
// 设计理念：
//   - 内置 Sink 是一个封闭集合（console、formatted_console、single_file、
//     daily_file、lumberjack），与用户扩展共享同一个接口
//   - 构建期（Builder）与运行期（Dispatcher）是两个类型，运行期不可再添加 Sink
//   - Sink 写入失败只计数并回调，永不向调用方扩散
package xlog

// Sink 一个独立配置的日志输出目标
//
// 所有实现必须并发安全：Dispatcher 在调用方 goroutine 上同步调用，
// 多个 goroutine 可能同时调用同一 Sink。
// 实现 io.Closer 的 Sink 会在 [Dispatcher.Close] 时被关闭。
type Sink interface {
	// Enabled 判断 Sink 是否接受该元数据的事件
	Enabled(md Metadata) bool

	// Log 写入一条事件。返回的错误由 Dispatcher 计数并交给 OnError，
	// 不会影响其他 Sink。
	Log(e Event) error

	// Flush 将已写入的数据落盘。无写入时重复调用不得修改输出内容。
	Flush() error
}

// Factory 根据该 Sink 独享的配置副本构造 Sink。
//
// 在 [Builder.Build] 时按注册顺序各调用一次。
type Factory func(cfg Config) (Sink, error)

// SinkKind Sink 类型标签，用于错误信息、观测属性与配置文件。
type SinkKind string

// 内置 Sink 类型
const (
	KindConsole          SinkKind = "console"
	KindFormattedConsole SinkKind = "formatted_console"
	KindSingleFile       SinkKind = "single_file"
	KindDailyFile        SinkKind = "daily_file"
	KindLumberjack       SinkKind = "lumberjack"
	KindCustom           SinkKind = "custom"
)
