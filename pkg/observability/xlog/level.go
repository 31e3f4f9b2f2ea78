package xlog

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
//
// 数值越大越严重：Trace(-8) < Debug(-4) < Info(0) < Warn(4) < Error(8)。
// 作为 Sink 阈值时，事件级别 >= 阈值才会投递。
type Level slog.Level

// 日志级别常量，与 slog 保持一致
const (
	LevelTrace = Level(slog.LevelDebug - 4)
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)

	// LevelOff 作为 Sink 阈值时关闭该 Sink，不对应任何事件级别
	LevelOff = Level(math.MaxInt32)
)

// levelNames 标准级别与名称的对应关系，按严重程度升序。
var levelNames = [...]struct {
	level Level
	name  string
}{
	{LevelTrace, "TRACE"},
	{LevelDebug, "DEBUG"},
	{LevelInfo, "INFO"},
	{LevelWarn, "WARN"},
	{LevelError, "ERROR"},
	{LevelOff, "OFF"},
}

// String 返回大写名称；非标准级别沿用 slog 的相对写法（如 "INFO+2"）。
func (l Level) String() string {
	for _, ln := range levelNames {
		if ln.level == l {
			return ln.name
		}
	}
	return slog.Level(l).String()
}

// Allows 判断阈值 l 是否接受 event 级别的事件。LevelOff 不接受任何事件。
func (l Level) Allows(event Level) bool {
	return l != LevelOff && event >= l
}

// MarshalText 让 Level 可直接出现在 YAML/JSON 配置中。
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 见 [ParseLevel]。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 按名称解析级别，忽略大小写与首尾空白，"warning" 视为 WARN。
// 未知名称返回 [ErrUnknownLevel] 与 LevelInfo。
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn, nil
	}
	for _, ln := range levelNames {
		if ln.name == name {
			return ln.level, nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
