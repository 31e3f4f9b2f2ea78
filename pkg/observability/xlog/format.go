package xlog

import (
	"strconv"
	"strings"
)

// Formatter 将事件渲染为写入 Sink 的文本，不含结尾换行。
type Formatter func(e Event, cfg *Config) string

// ANSI 样式
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiBlack  = "\x1b[30m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func datetime(e Event, cfg *Config) string {
	if cfg == nil || cfg.DatetimeFormat == "" {
		return e.Time.Format(DefaultDatetimeFormat)
	}
	return e.Time.Format(cfg.DatetimeFormat)
}

// DefaultFormatter 单行格式：<时间> <LEVEL> <target> <消息>
//
//	2024-09-13 17:35:18 INFO app::db connected
func DefaultFormatter(e Event, cfg *Config) string {
	var b strings.Builder
	b.Grow(len(e.Target) + len(e.Message) + 32)
	b.WriteString(datetime(e, cfg))
	b.WriteByte(' ')
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Target)
	b.WriteByte(' ')
	b.WriteString(e.Message)
	return b.String()
}

// levelColor 按级别选择颜色
func levelColor(l Level) string {
	switch {
	case l >= LevelError:
		return ansiRed
	case l >= LevelWarn:
		return ansiYellow
	case l >= LevelInfo:
		return ansiGreen
	case l >= LevelDebug:
		return ansiBlue
	default:
		return ansiBlack
	}
}

// ReadableFormatter 多行彩色格式，条目之间空一行：
//
//	2024-09-13 17:35:37 · INFO
//	bar
//	main.go:13
func ReadableFormatter(e Event, cfg *Config) string {
	var b strings.Builder
	b.WriteString(ansiBlack + datetime(e, cfg) + ansiReset)
	b.WriteString(" · ")
	b.WriteString(ansiBold + levelColor(e.Level) + e.Level.String() + ansiReset)
	b.WriteByte('\n')
	b.WriteString(ansiBold + e.Message + ansiReset)
	b.WriteByte('\n')
	if e.File != "" && e.Line > 0 {
		b.WriteString(ansiBlack + e.File + ":" + strconv.Itoa(e.Line) + ansiReset)
		b.WriteByte('\n')
	}
	return b.String()
}
