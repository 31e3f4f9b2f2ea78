package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultScope = "github.com/omeyang/xtail/pkg/observability"
	unknownName  = "unknown"

	// 指标名
	MetricOperations = "xtail.operation.total"
	MetricDuration   = "xtail.operation.duration"
	MetricBytes      = "xtail.operation.bytes"
)

type otelConfig struct {
	scope          string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option OTel Observer 配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation scope 名称，空字符串被忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.scope = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 被忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 被忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// otelObserver 每个跨度产生一个 Internal span，结束时记录次数、耗时与字节数。
type otelObserver struct {
	tracer     trace.Tracer
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	bytes      metric.Int64Counter
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer，未指定 provider 时使用全局 provider。
//
// 指标维度固定为 component / operation / status，外加可选的 sink；
// 文件路径、日期等高基数属性只出现在 span 上。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		scope:          defaultScope,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.scope)
	o := &otelObserver{tracer: cfg.tracerProvider.Tracer(cfg.scope)}

	var err error
	if o.operations, err = meter.Int64Counter(MetricOperations,
		metric.WithDescription("log dispatch and file maintenance operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricOperations, err)
	}
	if o.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("operation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricDuration, err)
	}
	if o.bytes, err = meter.Int64Counter(MetricBytes,
		metric.WithDescription("bytes rotated or switched out of active log files"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricBytes, err)
	}
	return o, nil
}

// Start 开始一次观测跨度。
func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &otelSpan{
		observer:  o,
		component: orUnknown(opts.Component),
		operation: orUnknown(opts.Operation),
		start:     time.Now(),
	}
	for _, a := range opts.Attrs {
		if a.Key == AttrSink {
			s.sink = fmt.Sprint(a.Value)
		}
	}

	ctx, s.span = o.tracer.Start(ctx, s.component+"."+s.operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrsToOTel(opts.Attrs)...),
	)
	s.ctx = ctx
	return ctx, s
}

func orUnknown(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	sink      string
	start     time.Time
	endOnce   sync.Once
}

// End 结束观测并记录结果。幂等，多次调用只记录一次指标。
func (s *otelSpan) End(result Result) {
	if s == nil {
		return
	}

	s.endOnce.Do(func() {
		status := result.status()

		if result.Err != nil {
			s.span.RecordError(result.Err)
		}
		switch status {
		case StatusError:
			msg := "operation failed"
			if result.Err != nil {
				msg = result.Err.Error()
			}
			s.span.SetStatus(codes.Error, msg)
		case StatusOK:
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.SetAttributes(attribute.String("status", string(status)))
		if result.Bytes > 0 {
			s.span.SetAttributes(attribute.Int64("bytes", result.Bytes))
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		s.span.End()

		// 调用方 ctx 可能已取消，指标仍需记录
		metricsCtx := context.WithoutCancel(s.ctx)
		dims := s.dimensions()
		s.observer.operations.Add(metricsCtx, 1,
			metric.WithAttributes(append(dims, attribute.String("status", string(status)))...))
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(),
			metric.WithAttributes(append(dims, attribute.String("status", string(status)))...))
		if result.Bytes > 0 {
			s.observer.bytes.Add(metricsCtx, result.Bytes, metric.WithAttributes(dims...))
		}
	})
}

// dimensions 返回不含 status 的指标维度，容量预留给 status。
func (s *otelSpan) dimensions() []attribute.KeyValue {
	dims := make([]attribute.KeyValue, 0, 4)
	dims = append(dims,
		attribute.String("component", s.component),
		attribute.String("operation", s.operation),
	)
	if s.sink != "" {
		dims = append(dims, attribute.String(AttrSink, s.sink))
	}
	return dims
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" || attr.Value == nil {
			continue
		}
		converted = append(converted, toKeyValue(attr))
	}
	return converted
}

func toKeyValue(attr Attr) attribute.KeyValue {
	switch v := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, v)
	case bool:
		return attribute.Bool(attr.Key, v)
	case int:
		return attribute.Int(attr.Key, v)
	case int64:
		return attribute.Int64(attr.Key, v)
	case time.Duration:
		return attribute.String(attr.Key, v.String())
	default:
		return attribute.String(attr.Key, fmt.Sprint(v))
	}
}
