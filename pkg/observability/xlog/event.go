package xlog

import "time"

// Metadata 事件的路由信息，全局过滤与 Sink.Enabled 只看这部分。
type Metadata struct {
	Level  Level
	Target string
}

// Event 一条日志事件。值类型，生命周期为一次分发调用。
type Event struct {
	// Time 事件时间；按日文件 Sink 用它决定目标文件
	Time time.Time
	// Level 级别
	Level Level
	// Target 以 "." 或 "::" 分隔的命名空间，用于前缀过滤
	Target string
	// Message 已格式化的消息文本
	Message string
	// File 源文件，可为空
	File string
	// Line 源码行号，File 为空时忽略
	Line int
}

// Metadata 返回事件的路由信息。
func (e Event) Metadata() Metadata {
	return Metadata{Level: e.Level, Target: e.Target}
}
