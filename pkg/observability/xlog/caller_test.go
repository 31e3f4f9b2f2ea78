package xlog

import (
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallerCache_Resolve(t *testing.T) {
	cc := newCallerCache(8)

	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])

	first := cc.resolve(pcs[0])
	assert.True(t, strings.HasSuffix(first.file, "caller_test.go"), first.file)
	assert.Positive(t, first.line)
	assert.Equal(t, "github.com/omeyang/xtail/pkg/observability/xlog", first.pkg)
	assert.Equal(t, 1, cc.len())

	assert.Equal(t, first, cc.resolve(pcs[0]))
	assert.Equal(t, 1, cc.len(), "命中缓存不新增条目")
}

func TestCallerCache_ZeroPC(t *testing.T) {
	cc := newCallerCache(8)
	assert.Equal(t, caller{}, cc.resolve(0))
	assert.Zero(t, cc.len())
}

func TestCallerCache_Disabled(t *testing.T) {
	cc := newCallerCache(0)

	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	c := cc.resolve(pcs[0])
	assert.True(t, strings.HasSuffix(c.file, "caller_test.go"))
	assert.Zero(t, cc.len())
}

func TestCallerCache_SharedBySlogCallSite(t *testing.T) {
	sink := &recordSink{}
	d := buildWith(t, New().Custom(customSink(sink), LevelTrace))
	logger := slog.New(d.Handler())

	for range 3 {
		logger.Info("same call site")
	}

	assert.Equal(t, 1, d.callers.len())
	assert.Len(t, sink.messages(), 3)
}
