package xmetrics

// AttrSink Sink 类型属性键。它是唯一会进入指标维度的跨度属性，
// 其余属性（路径、日期等）基数不可控，只留在跨度上。
const AttrSink = "sink"

// String 字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Int 整数属性。
func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

// Int64 int64 属性。
func Int64(key string, value int64) Attr {
	return Attr{Key: key, Value: value}
}

// Bool 布尔属性。
func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

// Sink Sink 类型属性，见 [AttrSink]。
func Sink(kind string) Attr {
	return Attr{Key: AttrSink, Value: kind}
}
