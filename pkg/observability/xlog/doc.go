// Package xlog 可插拔的日志分发核心。
//
// 调用方产生的日志事件先经过进程级过滤（级别白名单、target 前缀白名单），
// 再按注册顺序投递给每个级别满足的 Sink。所有分发在调用方 goroutine 上同步完成，
// 没有队列与后台 goroutine。
//
// # 两个阶段
//
// 构建期 [Builder] 与运行期 [Dispatcher] 是两个类型：
//
//	d, err := xlog.New().
//		SetFilterTargets("app").
//		SetMaxFileSizeMB(100).
//		Console(xlog.LevelDebug).
//		DailyFile("logs", xlog.LevelInfo).
//		Build()
//
// Builder 遵循 first-error-wins：遇到第一个配置错误后，后续 Set 与 Sink 登记都被跳过。
// Builder 为一次性使用：Build 后再次 Build 返回 [ErrBuilderUsed]。
// 未登记任何 Sink 时 Build 返回 [ErrNoSinks]；任一 Sink 构造失败时已构造的 Sink 被关闭。
//
// # Sink
//
//   - console: [DefaultFormatter] 单行写入 stdout（可用 SetConsoleOutput 替换）
//   - formatted_console: [ReadableFormatter] 彩色多行
//   - single_file: 固定路径，追加或截断，可按大小轮转为 .oldN
//   - daily_file: <dir>/<YYYY-MM-DD>.log，按事件日期切换，按保留期清理
//   - lumberjack: 基于 lumberjack 的按大小轮转
//   - custom: [Builder.Custom] 接收用户 [Factory]
//
// 文件 Sink 构造时检查目录可写性，失败返回 [ErrPermission] 或 [ErrIO]。
//
// # 错误处理
//
// 运行期 Sink 失败（含 panic）不会传给调用方：计入 [Dispatcher.ErrorCount]，
// 并交给 SetOnError 回调（递归保护、panic 隔离），后续 Sink 照常写入。
// [Dispatcher.Flush] 依次 flush 所有 Sink，错误合并返回。
//
// # 进程内安装
//
//   - [Install] / [Builder.Init]: 安装为唯一 Dispatcher 并接管 slog 默认 logger，
//     重复安装返回 [ErrAlreadyInstalled]
//   - [Trace]、[Debug]、[Info]、[Warn]、[Error]、[Log]: 签名为 (target, format, args...)，
//     安装前为空操作
//   - slog: 属性 "target"（[KeyTarget]）设置 target，缺省取调用方包路径
//
// # 日志级别
//
// LevelTrace(-8)、LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，与 slog 兼容；
// LevelOff 作为 Sink 级别时关闭该 Sink。可通过 [ParseLevel] 从字符串解析。
//
// # 配置文件
//
// [FromConfig] 通过 xconf（koanf）读取 YAML/JSON，返回已登记 Sink 的 Builder。
package xlog
