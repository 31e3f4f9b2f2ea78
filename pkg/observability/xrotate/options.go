package xrotate

import (
	"fmt"
	"os"
	"time"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
)

// 默认配置值
const (
	// DefaultMaxBackups 默认保留的 .oldN 备份数量
	DefaultMaxBackups = 7

	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0o644

	// DefaultMaxSizeMB lumberjack 后端未配置大小时的默认上限（MB）
	DefaultMaxSizeMB = 500

	// DefaultCompress lumberjack 后端默认是否压缩备份
	DefaultCompress = true

	// megabyte 字节换算
	megabyte = 1024 * 1024

	// maxSizeBytes 单个日志文件大小上限（10 GB）
	maxSizeBytes = 10240 * megabyte

	// maxBackups 备份文件数量上限
	maxBackups = 1024

	// maxRetentionDays 保留天数上限（约 10 年）
	maxRetentionDays = 3650
)

// config 所有 Rotator 实现共享的配置。
// 各实现只读取与自身相关的字段。
type config struct {
	// append 单文件：true 追加，false 截断。按日文件始终追加。
	append bool
	// maxSize 触发按大小轮转的字节数，0 表示关闭
	maxSize int64
	// maxBackups .oldN 的最大编号
	maxBackups int
	// retentionDays 按日文件的保留天数，0 表示关闭；lumberjack 映射为 MaxAge
	retentionDays int
	// fileMode 新建文件的权限
	fileMode os.FileMode
	// compress lumberjack：是否 gzip 备份
	compress bool
	// localTime lumberjack：备份文件名是否使用本地时间
	localTime bool
	// clock Write 使用的时钟
	clock func() time.Time
	// onError 接收轮转、重开、清理等内部错误
	onError func(error)
	// observer 轮转、切换、清理操作的观测
	observer xmetrics.Observer

	// openFile 可注入的打开函数（nil 时使用 os.OpenFile），仅用于测试
	openFile func(name string, flag int, perm os.FileMode) (*os.File, error)
}

// Option 配置选项函数
type Option func(*config)

// WithAppend 设置单文件是否追加写入（默认 true）。false 时构造时截断文件。
func WithAppend(on bool) Option {
	return func(c *config) {
		c.append = on
	}
}

// WithMaxSize 设置触发按大小轮转的字节数，0 表示关闭。
// lumberjack 后端按 MB 向上取整。
func WithMaxSize(bytes int64) Option {
	return func(c *config) {
		c.maxSize = bytes
	}
}

// WithMaxBackups 设置保留的 .oldN 备份数量（1~1024，默认 [DefaultMaxBackups]）。
func WithMaxBackups(n int) Option {
	return func(c *config) {
		c.maxBackups = n
	}
}

// WithRetentionDays 设置保留天数（0~3650，0 表示不清理）。
func WithRetentionDays(days int) Option {
	return func(c *config) {
		c.retentionDays = days
	}
}

// WithFileMode 设置日志文件权限（仅权限位）。
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.fileMode = mode
	}
}

// WithCompress 设置 lumberjack 后端是否压缩备份文件。
func WithCompress(compress bool) Option {
	return func(c *config) {
		c.compress = compress
	}
}

// WithLocalTime 设置 lumberjack 后端备份文件名是否使用本地时间。
func WithLocalTime(local bool) Option {
	return func(c *config) {
		c.localTime = local
	}
}

// WithClock 设置 Write 使用的时钟，nil 被忽略。
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithOnError 设置错误回调函数
//
// 接收不影响当前行写入的内部错误：轮转、重开、切换与清理失败。
//
// 设计决策: 不使用 slog 等日志库记录内部错误，避免 Rotator 作为日志输出目标时
// 产生递归写入（写失败 → 打日志 → 再写失败 → 栈溢出/死锁）。
// 回调在写锁内执行，不得向同一 Rotator 写入数据。
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithObserver 设置观测器，nil 被忽略。
func WithObserver(observer xmetrics.Observer) Option {
	return func(c *config) {
		if observer != nil {
			c.observer = observer
		}
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		append:     true,
		maxBackups: DefaultMaxBackups,
		fileMode:   DefaultFileMode,
		compress:   DefaultCompress,
		clock:      time.Now,
		observer:   xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.maxSize < 0 || c.maxSize > maxSizeBytes {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxSize, c.maxSize, int64(maxSizeBytes))
	}
	if c.maxBackups < 1 || c.maxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxBackups, c.maxBackups, maxBackups)
	}
	if c.retentionDays < 0 || c.retentionDays > maxRetentionDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidRetention, c.retentionDays, maxRetentionDays)
	}
	// FileMode 仅允许权限位（低 9 位），拒绝文件类型位、setuid/setgid 等
	if c.fileMode == 0 || c.fileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0001~0777) allowed",
			ErrInvalidFileMode, c.fileMode)
	}
	return nil
}

// reportError 通过回调上报内部错误
//
// 回调 panic 被 recover 隔离，防止日志错误通知反向中断业务主流程。
func (c *config) reportError(err error) {
	if err != nil && c.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		c.onError(err)
	}
}
