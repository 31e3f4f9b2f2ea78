// Package xrun 基于 errgroup + context 管理 xtail 命令行工具的长驻任务。
//
// 一次性命令（emit、check）直接调用 xlog；需要常驻的命令（定时清理、
// 配置监视）把各自的循环注册为 Group 的服务，由 xrun 负责信号处理与协调退出。
//
// # 协调
//
// 任一服务返回错误，或收到 SIGHUP/SIGINT/SIGTERM/SIGQUIT，其余服务的 ctx 被取消。
// 信号退出时 Run 返回 *SignalError，可用 errors.Is(err, xrun.ErrSignal) 识别。
//
//	err := xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithName("xtail-prune")},
//	    xrun.Schedule("@daily", prune),
//	    func(ctx context.Context) error { return xconf.Watch(ctx, cfg, reload) },
//	)
//
// # 周期任务
//
//   - [Ticker]：固定间隔
//   - [Schedule]：cron 表达式（robfig/cron 解析），如 "0 3 * * *"、"@hourly"
//
// 两者都在调用方 goroutine 内同步执行 fn，fn 失败即退出服务。
//
// # 日志
//
// 生命周期事件通过 slog 记录（默认 slog.Default()）。xlog.Install 之后
// slog 默认 logger 就是已安装的分发器，无需额外配置。
package xrun
