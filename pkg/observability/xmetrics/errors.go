package xmetrics

import "errors"

// ErrCreateInstrument OTel 指标仪表创建失败，错误消息中带有指标名。
var ErrCreateInstrument = errors.New("xmetrics: create instrument failed")
