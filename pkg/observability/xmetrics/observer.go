package xmetrics

import "context"

// Status 观测结果状态。
type Status string

const (
	// StatusOK 操作成功。
	StatusOK Status = "ok"
	// StatusError 操作失败。
	StatusError Status = "error"
	// StatusSkipped 操作未执行，例如 Sink 处于熔断状态时事件被直接丢弃。
	StatusSkipped Status = "skipped"
)

// Attr 观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 观测跨度的创建参数。
//
// 跨度名为 Component + "." + Operation，例如 "xlog.sink.write"。
type SpanOptions struct {
	// Component 组件名称："xlog"、"xrotate"
	Component string
	// Operation 操作名称："sink.write"、"flush"、"rotate"、"switch"、"prune"
	Operation string
	// Attrs 跨度属性。键为 [AttrSink] 的属性同时作为指标维度。
	Attrs []Attr
}

// Result 跨度结束时的结果。
type Result struct {
	// Status 为空时由 Err 推导
	Status Status
	// Err 操作错误
	Err error
	// Bytes 操作涉及的字节数（轮转移走的文件大小等），0 表示不计入字节指标
	Bytes int64
	// Attrs 只附加到跨度上的属性
	Attrs []Attr
}

// status 返回最终状态：显式 Status 优先，其次按 Err 推导。
func (r Result) status() Status {
	if r.Status != "" {
		return r.Status
	}
	if r.Err != nil {
		return StatusError
	}
	return StatusOK
}

// Span 一次观测跨度。
type Span interface {
	// End 结束观测并记录结果。
	End(result Result)
}

// Observer 观测接口，实现必须并发安全。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 空实现。
type NoopObserver struct{}

// Start 返回 ctx 与 [NoopSpan]。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 空跨度。
type NoopSpan struct{}

// End 空实现。
func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测。
//
// 保证返回非 nil 的 context 与 Span：nil ctx 替换为 context.Background()，
// nil observer 或自定义 Observer 返回的 nil Span 兜底为 [NoopSpan]。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
