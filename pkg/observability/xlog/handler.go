package xlog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// KeyTarget slog 属性名：设置事件的 target，不出现在消息文本中
const KeyTarget = "target"

// 编译时接口检查
var _ slog.Handler = (*handler)(nil)

// handler 把 slog.Record 适配为 Event 交给 Dispatcher。
//
// 级别一一对应；顶层 "target" 属性设置 target，缺省时取调用方函数所在包路径；
// 其余属性按 key=value 追加到消息之后；记录的 PC 解析为 file:line。
type handler struct {
	d      *Dispatcher
	target string
	attrs  string // WithAttrs 预渲染的 " k=v" 片段
	group  string // WithGroup 累积的 "g1.g2." 前缀
}

// Handler 返回桥接到本 Dispatcher 的 slog.Handler。
func (d *Dispatcher) Handler() slog.Handler {
	return &handler{d: d}
}

// Enabled 在 target 未知时只按级别判断，target 过滤在 Handle 中完成。
func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.d.levelEnabled(Level(level))
}

// Handle 转换并分发记录。Sink 错误已由 Dispatcher 处理，这里总是返回 nil。
func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)

	target := h.target
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" && a.Key == KeyTarget {
			target = a.Value.Resolve().String()
			return true
		}
		appendAttr(&b, h.group, a)
		return true
	})

	e := Event{
		Time:    r.Time,
		Level:   Level(r.Level),
		Message: b.String(),
	}
	if e.Time.IsZero() {
		e.Time = h.d.clock()
	}
	if r.PC != 0 {
		c := h.d.callers.resolve(r.PC)
		e.File, e.Line = c.file, c.line
		if target == "" {
			target = c.pkg
		}
	}
	e.Target = target

	h.d.LogContext(ctx, e)
	return nil
}

// WithAttrs 顶层 target 属性覆盖 target，其余预渲染。
func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if h.group == "" && a.Key == KeyTarget {
			clone.target = a.Value.Resolve().String()
			continue
		}
		appendAttr(&b, h.group, a)
	}
	clone.attrs = b.String()
	return &clone
}

// WithGroup 后续属性的 key 加上 "name." 前缀。
func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

// appendAttr 追加 " prefix.key=value"，分组属性展开为多个键。
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		next := prefix
		if a.Key != "" {
			next = prefix + a.Key + "."
		}
		for _, ga := range attrs {
			appendAttr(b, next, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(quoteIfNeeded(a.Value.String()))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// packageOf 从 runtime 函数名提取包路径：
// "github.com/a/b/pkg.(*T).M" → "github.com/a/b/pkg"。
func packageOf(function string) string {
	slash := strings.LastIndexByte(function, '/')
	dot := strings.IndexByte(function[slash+1:], '.')
	if dot < 0 {
		return function
	}
	return function[:slash+1+dot]
}
