package xlog

import (
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
)

// callerCacheSize 缓存的调用点数量。日志调用点在进程内是有限集合，
// 常驻服务里几千个条目足以覆盖全部热点。
const callerCacheSize = 4096

// caller 由 PC 解析出的调用点
type caller struct {
	file string
	line int
	pkg  string // 默认 target
}

// callerCache 缓存 PC → 调用点。runtime.CallersFrames 需要查符号表，
// 同一调用点每次解析结果相同。
type callerCache struct {
	c *lru.Cache[uintptr, caller]
}

func newCallerCache(size int) *callerCache {
	c, err := lru.New[uintptr, caller](size)
	if err != nil {
		// size 非正时不缓存
		return &callerCache{}
	}
	return &callerCache{c: c}
}

// resolve 返回 pc 对应的调用点，pc 为 0 时返回零值。
func (cc *callerCache) resolve(pc uintptr) caller {
	if pc == 0 {
		return caller{}
	}
	if cc.c != nil {
		if c, ok := cc.c.Get(pc); ok {
			return c
		}
	}

	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	c := caller{file: frame.File, line: frame.Line, pkg: packageOf(frame.Function)}
	if cc.c != nil {
		cc.c.Add(pc, c)
	}
	return c
}

// len 返回缓存条目数。
func (cc *callerCache) len() int {
	if cc.c == nil {
		return 0
	}
	return cc.c.Len()
}
