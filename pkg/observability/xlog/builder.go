package xlog

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// sinkEntry 构建期登记的 Sink：工厂与其级别。Build 时恰好消费一次。
type sinkEntry struct {
	kind    SinkKind
	level   Level
	factory Factory
}

// Builder 日志分发器构建器
//
// first-error-wins：遇到第一个配置错误后，后续 Set 与 Sink 登记都被跳过，
// 错误在 Build 时返回。Builder 为一次性使用：Build 之后再次 Build 返回 [ErrBuilderUsed]。
type Builder struct {
	cfg     Config
	entries []sinkEntry
	breaker *BreakerSettings
	used    bool
	err     error
}

// New 创建构建器
func New() *Builder {
	return &Builder{cfg: defaultConfig()}
}

// skip 是否跳过后续操作
func (b *Builder) skip() bool {
	return b.err != nil || b.used
}

// SetDatetimeFormat 设置时间格式（Go layout，如 "2006-01-02 15:04:05.000"）
func (b *Builder) SetDatetimeFormat(layout string) *Builder {
	if b.skip() {
		return b
	}
	if layout == "" {
		b.err = fmt.Errorf("%w: empty datetime format", ErrInvalidOption)
		return b
	}
	b.cfg.DatetimeFormat = layout
	return b
}

// SetMaxFileSize 设置文件 Sink 按大小轮转的字节数，0 表示关闭
func (b *Builder) SetMaxFileSize(bytes int64) *Builder {
	if b.skip() {
		return b
	}
	if bytes < 0 {
		b.err = fmt.Errorf("%w: max file size %d", ErrInvalidOption, bytes)
		return b
	}
	b.cfg.MaxFileSize = bytes
	return b
}

// SetMaxFileSizeMB 以 MB 为单位设置按大小轮转阈值
func (b *Builder) SetMaxFileSizeMB(mb int) *Builder {
	return b.SetMaxFileSize(int64(mb) * 1024 * 1024)
}

// SetMaxBackups 设置 .oldN 备份数量上限，超出时删除最旧的备份
func (b *Builder) SetMaxBackups(n int) *Builder {
	if b.skip() {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("%w: max backups %d", ErrInvalidOption, n)
		return b
	}
	b.cfg.MaxBackups = n
	return b
}

// SetRetentionDays 设置按日文件保留天数，0 表示不清理
func (b *Builder) SetRetentionDays(days int) *Builder {
	if b.skip() {
		return b
	}
	if days < 0 {
		b.err = fmt.Errorf("%w: retention days %d", ErrInvalidOption, days)
		return b
	}
	b.cfg.RetentionDays = days
	return b
}

// SetFilterLevels 设置全局级别白名单：只有列出的级别会被分发
func (b *Builder) SetFilterLevels(levels ...Level) *Builder {
	if b.skip() {
		return b
	}
	b.cfg.Levels = append(b.cfg.Levels[:0:0], levels...)
	return b
}

// SetFilterTargets 设置全局 target 前缀白名单：target 以任一前缀开头才会被分发
func (b *Builder) SetFilterTargets(prefixes ...string) *Builder {
	if b.skip() {
		return b
	}
	b.cfg.Targets = append(b.cfg.Targets[:0:0], prefixes...)
	return b
}

// SetFormatter 设置 console 与文件 Sink 的格式化函数（formatted_console 除外）
func (b *Builder) SetFormatter(f Formatter) *Builder {
	if b.skip() {
		return b
	}
	if f == nil {
		f = DefaultFormatter
	}
	b.cfg.Formatter = f
	return b
}

// SetConsoleOutput 设置 console 类 Sink 的输出，nil 恢复为 stdout
func (b *Builder) SetConsoleOutput(w io.Writer) *Builder {
	if b.skip() {
		return b
	}
	b.cfg.Console = w
	return b
}

// SetClock 设置时钟，nil 被忽略
func (b *Builder) SetClock(clock func() time.Time) *Builder {
	if b.skip() || clock == nil {
		return b
	}
	b.cfg.Clock = clock
	return b
}

// SetOnError 设置内部错误回调
//
// Sink 写入失败、文件轮转/切换/清理失败时调用。默认策略仍然"不向外返回错误、不 panic"，
// 但允许业务把内部错误接到 metrics/告警系统。
//
// 注意事项：
//   - 回调在热路径同步执行，应保持轻量
//   - 内置递归保护：回调内部再次触发日志错误不会导致无限递归
//   - 回调不得向同一 Dispatcher 写日志（文件轮转回调运行在写锁内）
func (b *Builder) SetOnError(fn func(error)) *Builder {
	if b.skip() {
		return b
	}
	b.cfg.OnError = fn
	return b
}

// SetObserver 设置观测器（Sink 写入、flush、文件轮转/切换/清理）
func (b *Builder) SetObserver(observer xmetrics.Observer) *Builder {
	if b.skip() {
		return b
	}
	b.cfg.Observer = observer
	return b
}

// SetBreaker 为每个 Sink 启用熔断：连续失败达到阈值后在冷却期内跳过该 Sink。
//
// 适合可能长时间不可用的自定义 Sink；熔断期间丢弃的事件以 [ErrSinkSuspended] 计数上报。
func (b *Builder) SetBreaker(settings BreakerSettings) *Builder {
	if b.skip() {
		return b
	}
	if settings.Cooldown < 0 {
		b.err = fmt.Errorf("%w: breaker cooldown %s", ErrInvalidOption, settings.Cooldown)
		return b
	}
	s := settings.withDefaults()
	b.breaker = &s
	return b
}

// Console 登记 console Sink：DefaultFormatter 单行输出
func (b *Builder) Console(level Level) *Builder {
	return b.add(KindConsole, level, newConsoleSink)
}

// FormattedConsole 登记 formatted console Sink：彩色多行输出
func (b *Builder) FormattedConsole(level Level) *Builder {
	return b.add(KindFormattedConsole, level, newFormattedConsoleSink)
}

// SingleFile 登记单文件 Sink。appendMode 为 false 时构造时截断文件。
func (b *Builder) SingleFile(path string, appendMode bool, level Level) *Builder {
	return b.add(KindSingleFile, level, newSingleFileSink(path, appendMode))
}

// DailyFile 登记按日文件 Sink：<dir>/<YYYY-MM-DD>.log
func (b *Builder) DailyFile(dir string, level Level) *Builder {
	return b.add(KindDailyFile, level, newDailyFileSink(dir))
}

// Lumberjack 登记基于 lumberjack 的按大小轮转文件 Sink。
// opts 追加在共享配置映射出的选项之后，可覆盖大小、备份数等。
func (b *Builder) Lumberjack(path string, level Level, opts ...xrotate.Option) *Builder {
	return b.add(KindLumberjack, level, newLumberjackSink(path, opts))
}

// Custom 登记用户 Sink。factory 在 Build 时收到该 Sink 独享的配置副本。
func (b *Builder) Custom(factory Factory, level Level) *Builder {
	if !b.skip() && factory == nil {
		b.err = fmt.Errorf("%w: custom sink", ErrNilFactory)
		return b
	}
	return b.add(KindCustom, level, factory)
}

func (b *Builder) add(kind SinkKind, level Level, factory Factory) *Builder {
	if b.skip() {
		return b
	}
	b.entries = append(b.entries, sinkEntry{kind: kind, level: level, factory: factory})
	return b
}

// Build 按注册顺序构造全部 Sink，返回运行期的 Dispatcher
//
// 任一工厂失败时，已构造的 Sink 会被关闭，错误原样包装返回
// （文件 Sink 的权限与 I/O 错误可用 errors.Is 判断 [ErrPermission]、[ErrIO]）。
func (b *Builder) Build() (*Dispatcher, error) {
	if b.used {
		return nil, ErrBuilderUsed
	}
	b.used = true

	if b.err != nil {
		return nil, b.err
	}
	if len(b.entries) == 0 {
		return nil, ErrNoSinks
	}

	// Sink 收到的 OnError 指向 Dispatcher，文件轮转等后台错误同样计数并受递归保护
	d := newDispatcher(b.cfg.Clone(), nil)
	sinks := make([]activeSink, 0, len(b.entries))
	for i, entry := range b.entries {
		cfg := b.cfg.Clone()
		cfg.Level = entry.level
		cfg.OnError = d.handleError

		sink, err := entry.factory(cfg)
		if err == nil && sink == nil {
			err = ErrNilFactory
		}
		if err != nil {
			closeErr := closeSinks(sinks)
			return nil, errors.Join(
				fmt.Errorf("xlog: build %s sink #%d: %w", entry.kind, i, err),
				closeErr,
			)
		}
		if b.breaker != nil {
			sink = newBreakerSink(entry.kind, i, sink, *b.breaker)
		}
		sinks = append(sinks, activeSink{kind: entry.kind, level: entry.level, sink: sink})
	}
	b.entries = nil

	d.sinks = sinks
	return d, nil
}

// Init 构建并安装为进程内唯一的 Dispatcher（同时接管 slog 默认 logger）。
//
// 安装失败时已构建的 Dispatcher 会被关闭。
func (b *Builder) Init() (*Dispatcher, error) {
	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := Install(d); err != nil {
		return nil, errors.Join(err, d.Close())
	}
	return d, nil
}
