// Package xmetrics 为日志分发核心提供最小化的观测接口。
//
// xlog 与 xrotate 只依赖 [Observer]/[Span]/[Attr] 三个抽象，默认使用
// [NoopObserver]，不引入任何热路径开销；需要观测时注入 [NewOTelObserver]。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	_, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xrotate",
//		Operation: "rotate",
//	})
//	span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
//   - xtail.operation.total：操作次数（Counter），维度 component / operation / status [/ sink]
//   - xtail.operation.duration：操作耗时，单位秒（Histogram），维度同上
//   - xtail.operation.bytes：轮转或日期切换移出活动文件的字节数（Counter），维度不含 status
//
// status 取值 ok / error / skipped；skipped 表示 Sink 处于熔断状态，事件未写入。
// 只有 [AttrSink] 会从跨度属性提升为指标维度，路径、日期等高基数属性只记录在 span 上。
//
// # 已使用的操作
//
//   - xlog / sink.write：单个 sink 处理一条事件
//   - xlog / flush：Dispatcher.Flush
//   - xrotate / rotate：按大小轮转
//   - xrotate / switch：按日期切换文件
//   - xrotate / prune：保留期清理
package xmetrics
