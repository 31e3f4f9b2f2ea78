package xlog

import (
	"io"
	"os"
	"slices"
	"time"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// DefaultDatetimeFormat 默认时间格式（Go layout）
const DefaultDatetimeFormat = "2006-01-02 15:04:05"

// Config 每个 Sink 独享的配置
//
// Builder 持有一份共享配置，Build 时为每个 Sink 克隆一份并写入该 Sink 的级别；
// 此后各副本互不影响，也不再修改。
type Config struct {
	// Level Sink 的最低级别；LevelOff 关闭该 Sink
	Level Level
	// DatetimeFormat 时间格式（Go layout）
	DatetimeFormat string
	// MaxFileSize 文件 Sink 按大小轮转的字节数，0 表示关闭
	MaxFileSize int64
	// MaxBackups .oldN 备份数量上限
	MaxBackups int
	// RetentionDays 按日文件保留天数，0 表示不清理
	RetentionDays int
	// Levels 全局级别白名单，空表示不限制
	Levels []Level
	// Targets 全局 target 前缀白名单，空表示不限制
	Targets []string
	// Formatter 文件与 console Sink 使用的格式化函数
	Formatter Formatter
	// Console console 类 Sink 的输出，默认 os.Stdout
	Console io.Writer
	// Clock 时钟，用于无时间戳的事件与按日文件初始日期
	Clock func() time.Time
	// OnError 接收 Sink 写入与文件轮转的内部错误。
	// Sink 工厂收到的副本指向 Dispatcher 的错误处理：先计数，再转交 SetOnError 的回调。
	OnError func(error)
	// Observer 观测器，nil 表示不观测
	Observer xmetrics.Observer
}

func defaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		DatetimeFormat: DefaultDatetimeFormat,
		MaxBackups:     xrotate.DefaultMaxBackups,
		Formatter:      DefaultFormatter,
		Console:        os.Stdout,
		Clock:          time.Now,
	}
}

// Clone 深拷贝切片字段，返回独立副本。
func (c Config) Clone() Config {
	c.Levels = slices.Clone(c.Levels)
	c.Targets = slices.Clone(c.Targets)
	return c
}

// Enabled 按 Sink 级别判断元数据是否被接受。
func (c *Config) Enabled(md Metadata) bool {
	return c.Level.Allows(md.Level)
}

// format 使用配置的格式化函数渲染事件。
func (c *Config) format(e Event) string {
	if c.Formatter == nil {
		return DefaultFormatter(e, c)
	}
	return c.Formatter(e, c)
}

// rotateOptions 将配置映射为 xrotate 选项。
func (c *Config) rotateOptions() []xrotate.Option {
	opts := []xrotate.Option{
		xrotate.WithMaxSize(c.MaxFileSize),
		xrotate.WithMaxBackups(c.MaxBackups),
		xrotate.WithRetentionDays(c.RetentionDays),
		xrotate.WithClock(c.Clock),
		xrotate.WithOnError(c.OnError),
	}
	if c.Observer != nil {
		opts = append(opts, xrotate.WithObserver(c.Observer))
	}
	return opts
}
