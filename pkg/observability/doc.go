// Package observability 提供日志分发与可观测性相关的子包。
//
// 子包列表：
//   - xlog: 可插拔日志分发器，全局过滤后把事件路由到多个 Sink
//   - xrotate: 日志文件轮转，按大小备份、按日切换与保留期清理
//   - xmetrics: 统一可观测性接口，OpenTelemetry 追踪与指标实现
//
// 设计原则：
//   - 分发同步进行，单个 Sink 的失败不影响其他 Sink
//   - 可观测性可选，未配置 Observer 时热路径零开销
//   - 遵循 OpenTelemetry 语义规范
package observability
