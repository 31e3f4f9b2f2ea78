package xlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xtail/pkg/config/xconf"
)

// FileConfig 配置文件中的分发器配置
//
//	datetime_format: "2006-01-02 15:04:05"
//	max_file_size: 10485760
//	max_backups: 7
//	retention_days: 14
//	levels: [info, warn, error]
//	targets: ["app", "db::"]
//	breaker:
//	  failures: 5
//	  cooldown: 30s
//	sinks:
//	  - type: daily_file
//	    level: info
//	    dir: logs
type FileConfig struct {
	DatetimeFormat string         `koanf:"datetime_format"`
	MaxFileSize    int64          `koanf:"max_file_size"`
	MaxBackups     int            `koanf:"max_backups"`
	RetentionDays  int            `koanf:"retention_days"`
	Levels         []string       `koanf:"levels"`
	Targets        []string       `koanf:"targets"`
	Breaker        *BreakerConfig `koanf:"breaker"`
	Sinks          []SinkConfig   `koanf:"sinks"`
}

// BreakerConfig 熔断配置，出现即启用；零值字段取默认值。
type BreakerConfig struct {
	Failures uint32        `koanf:"failures"`
	Cooldown time.Duration `koanf:"cooldown"`
}

// SinkConfig 单个 Sink 的配置
type SinkConfig struct {
	// Type console | formatted_console | single_file | daily_file | lumberjack
	Type string `koanf:"type"`
	// Level 最低级别，空为 info
	Level string `koanf:"level"`
	// Dir daily_file 的目录
	Dir string `koanf:"dir"`
	// Path single_file 与 lumberjack 的文件路径
	Path string `koanf:"path"`
	// Append single_file 是否追加，缺省为 true
	Append *bool `koanf:"append"`
}

// FromConfig 读取 cfg 中 key 路径下的 [FileConfig]，返回已登记 Sink 的 Builder。
// key 为空时读取整个配置。custom 类型无法从配置文件创建。
func FromConfig(cfg xconf.Config, key string) (*Builder, error) {
	var fc FileConfig
	if err := cfg.Unmarshal(key, &fc); err != nil {
		return nil, err
	}
	return fc.Builder()
}

// Builder 把配置翻译为 Builder 调用；级别与 Sink 类型在这里校验。
func (fc *FileConfig) Builder() (*Builder, error) {
	b := New()
	if fc.DatetimeFormat != "" {
		b.SetDatetimeFormat(fc.DatetimeFormat)
	}
	if fc.MaxFileSize != 0 {
		b.SetMaxFileSize(fc.MaxFileSize)
	}
	if fc.MaxBackups != 0 {
		b.SetMaxBackups(fc.MaxBackups)
	}
	if fc.RetentionDays != 0 {
		b.SetRetentionDays(fc.RetentionDays)
	}

	if len(fc.Levels) > 0 {
		levels := make([]Level, 0, len(fc.Levels))
		for _, s := range fc.Levels {
			l, err := ParseLevel(s)
			if err != nil {
				return nil, fmt.Errorf("levels: %w", err)
			}
			levels = append(levels, l)
		}
		b.SetFilterLevels(levels...)
	}
	if len(fc.Targets) > 0 {
		b.SetFilterTargets(fc.Targets...)
	}
	if fc.Breaker != nil {
		b.SetBreaker(BreakerSettings{Failures: fc.Breaker.Failures, Cooldown: fc.Breaker.Cooldown})
	}

	for i, sc := range fc.Sinks {
		if err := sc.register(b); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

// Kind 返回规范化（小写、去空白）后的 Sink 类型。
func (sc *SinkConfig) Kind() SinkKind {
	return SinkKind(strings.ToLower(strings.TrimSpace(sc.Type)))
}

// MinLevel 返回 Sink 的最低级别，未配置时为 info。
func (sc *SinkConfig) MinLevel() (Level, error) {
	if strings.TrimSpace(sc.Level) == "" {
		return LevelInfo, nil
	}
	return ParseLevel(sc.Level)
}

func (sc *SinkConfig) register(b *Builder) error {
	level, err := sc.MinLevel()
	if err != nil {
		return err
	}

	switch sc.Kind() {
	case KindConsole:
		b.Console(level)
	case KindFormattedConsole:
		b.FormattedConsole(level)
	case KindSingleFile:
		appendMode := true
		if sc.Append != nil {
			appendMode = *sc.Append
		}
		b.SingleFile(sc.Path, appendMode, level)
	case KindDailyFile:
		b.DailyFile(sc.Dir, level)
	case KindLumberjack:
		b.Lumberjack(sc.Path, level)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSinkType, sc.Type)
	}
	return nil
}
