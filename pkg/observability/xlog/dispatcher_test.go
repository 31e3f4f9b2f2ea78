package xlog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xtail/pkg/observability/xmetrics"
)

func buildWith(t *testing.T, b *Builder) *Dispatcher {
	t.Helper()
	d, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// ============================================================================
// 全局过滤
// ============================================================================

func TestDispatcher_TargetPrefixFilter(t *testing.T) {
	sink := &recordSink{}
	d := buildWith(t, New().SetFilterTargets("foo").Custom(customSink(sink), LevelTrace))

	assert.True(t, d.Enabled(Metadata{Level: LevelInfo, Target: "foo::bar"}))
	assert.True(t, d.Enabled(Metadata{Level: LevelInfo, Target: "foobar"}), "前缀匹配而非路径段匹配")
	assert.False(t, d.Enabled(Metadata{Level: LevelInfo, Target: "baz"}))
	assert.False(t, d.Enabled(Metadata{Level: LevelInfo, Target: "xfoo"}))

	d.Log(Event{Level: LevelInfo, Target: "foo::bar", Message: "kept"})
	d.Log(Event{Level: LevelInfo, Target: "baz", Message: "dropped"})
	assert.Equal(t, []string{"kept"}, sink.messages())
}

func TestDispatcher_LevelAllowList(t *testing.T) {
	sink := &recordSink{}
	d := buildWith(t, New().SetFilterLevels(LevelDebug, LevelError).Custom(customSink(sink), LevelTrace))

	for _, l := range []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError} {
		d.Log(Event{Level: l, Message: l.String()})
	}
	assert.Equal(t, []string{"DEBUG", "ERROR"}, sink.messages(), "白名单是成员判断而非阈值")
}

func TestDispatcher_NoFiltersAcceptAll(t *testing.T) {
	d := buildWith(t, New().Custom(customSink(&recordSink{}), LevelInfo))
	assert.True(t, d.Enabled(Metadata{Level: LevelTrace, Target: ""}))
}

// ============================================================================
// Sink 级别
// ============================================================================

func TestDispatcher_PerSinkLevel(t *testing.T) {
	levels := []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelOff}
	sinks := make([]*recordSink, len(levels))
	b := New()
	for i, l := range levels {
		sinks[i] = &recordSink{}
		b.Custom(customSink(sinks[i]), l)
	}
	d := buildWith(t, b)

	events := []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}
	for _, l := range events {
		d.Log(Event{Level: l, Message: l.String()})
	}

	for i, threshold := range levels {
		var want []string
		for _, l := range events {
			if threshold.Allows(l) {
				want = append(want, l.String())
			}
		}
		assert.Equal(t, want, nilIfEmpty(sinks[i].messages()), "sink level %s", threshold)
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestDispatcher_GlobalFilterRejectsBeforeSinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockSink(ctrl)
	// 全局过滤拒绝时不得调用 Sink 的任何方法
	d := buildWith(t, New().SetFilterTargets("app").Custom(customSink(mock), LevelTrace))
	mock.EXPECT().Flush().Return(nil).AnyTimes()

	d.Log(Event{Level: LevelError, Target: "other"})
}

func TestDispatcher_SinkEnabledConsulted(t *testing.T) {
	sink := &recordSink{reject: func(md Metadata) bool { return md.Target == "noisy" }}
	d := buildWith(t, New().Custom(customSink(sink), LevelTrace))

	d.Log(Event{Level: LevelInfo, Target: "noisy", Message: "a"})
	d.Log(Event{Level: LevelInfo, Target: "quiet", Message: "b"})
	assert.Equal(t, []string{"b"}, sink.messages())
}

// ============================================================================
// 错误隔离
// ============================================================================

func TestDispatcher_SinkErrorIsolated(t *testing.T) {
	errWrite := errors.New("disk full")
	failing := &recordSink{logErr: errWrite}
	healthy := &recordSink{}

	var reported []error
	d := buildWith(t, New().
		SetOnError(func(err error) { reported = append(reported, err) }).
		Custom(customSink(failing), LevelInfo).
		Custom(customSink(healthy), LevelInfo))

	d.Log(Event{Level: LevelInfo, Message: "one"})
	d.Log(Event{Level: LevelInfo, Message: "two"})

	assert.Equal(t, []string{"one", "two"}, healthy.messages())
	assert.Equal(t, uint64(2), d.ErrorCount())
	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], errWrite)
	assert.Contains(t, reported[0].Error(), "custom sink #0")
}

type panicSink struct{ recordSink }

func (*panicSink) Log(Event) error { panic("sink exploded") }

func TestDispatcher_SinkPanicIsolated(t *testing.T) {
	healthy := &recordSink{}
	d := buildWith(t, New().
		Custom(customSink(&panicSink{}), LevelInfo).
		Custom(customSink(healthy), LevelInfo))

	assert.NotPanics(t, func() {
		d.Log(Event{Level: LevelInfo, Message: "survives"})
	})
	assert.Equal(t, []string{"survives"}, healthy.messages())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcher_OnErrorPanicCounted(t *testing.T) {
	d := buildWith(t, New().
		SetOnError(func(error) { panic("callback") }).
		Custom(customSink(&recordSink{logErr: errors.New("x")}), LevelInfo))

	assert.NotPanics(t, func() { d.Log(Event{Level: LevelInfo}) })
	assert.Equal(t, uint64(2), d.ErrorCount(), "写入错误 + 回调 panic")
}

func TestDispatcher_OnErrorRecursionGuard(t *testing.T) {
	var d *Dispatcher
	var calls atomic.Int32
	d = buildWith(t, New().
		SetOnError(func(error) {
			calls.Add(1)
			// 回调内部再次触发失败的写入
			d.Log(Event{Level: LevelInfo})
		}).
		Custom(customSink(&recordSink{logErr: errors.New("x")}), LevelInfo))

	d.Log(Event{Level: LevelInfo})
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(2), d.ErrorCount())
}

func TestDispatcher_SinkOnErrorCounted(t *testing.T) {
	var sinkOnError func(error)
	factory := func(cfg Config) (Sink, error) {
		sinkOnError = cfg.OnError
		return &recordSink{}, nil
	}
	var reported []error
	d := buildWith(t, New().
		SetOnError(func(err error) { reported = append(reported, err) }).
		Custom(factory, LevelInfo))

	require.NotNil(t, sinkOnError)
	errRotate := errors.New("rotate failed")
	sinkOnError(errRotate)

	assert.Equal(t, uint64(1), d.ErrorCount())
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], errRotate)
}

func TestDispatcher_SinkOnErrorCountedWithoutCallback(t *testing.T) {
	var sinkOnError func(error)
	factory := func(cfg Config) (Sink, error) {
		sinkOnError = cfg.OnError
		return &recordSink{}, nil
	}
	d := buildWith(t, New().Custom(factory, LevelInfo))

	require.NotNil(t, sinkOnError)
	sinkOnError(errors.New("prune failed"))
	assert.Equal(t, uint64(1), d.ErrorCount())
}

// ============================================================================
// 时间戳
// ============================================================================

func TestDispatcher_ZeroTimeStampedOnce(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	var ticks atomic.Int32
	clock := func() time.Time {
		ticks.Add(1)
		return testTime.Add(time.Duration(ticks.Load()) * time.Second)
	}
	d := buildWith(t, New().SetClock(clock).
		Custom(customSink(a), LevelInfo).
		Custom(customSink(b), LevelInfo))
	ticks.Store(0)

	d.Log(Event{Level: LevelInfo, Target: "app", Message: "hello"})
	assert.Equal(t, testTime.Add(time.Second), a.last().Time)
	assert.Equal(t, a.last().Time, b.last().Time, "所有 Sink 看到同一时间戳")

	d.Log(Event{Time: testTime, Level: LevelInfo, Message: "explicit"})
	assert.Equal(t, testTime, a.last().Time)
	assert.Equal(t, int32(1), ticks.Load())
}

// ============================================================================
// Flush / Close
// ============================================================================

func TestDispatcher_FlushContinuesPastFailures(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	a := &recordSink{flushErr: errA}
	b := &recordSink{}
	c := &recordSink{flushErr: errC}
	d := buildWith(t, New().
		Custom(customSink(a), LevelInfo).
		Custom(customSink(b), LevelInfo).
		Custom(customSink(c), LevelInfo))

	err := d.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, int32(1), b.flushes.Load())
	assert.Equal(t, int32(1), c.flushes.Load())
}

func TestDispatcher_FlushSurvivesSinkPanic(t *testing.T) {
	next := &recordSink{}
	d := buildWith(t, New().
		Custom(customSink(&panicSink{}), LevelInfo).
		Custom(customSink(next), LevelInfo))

	var err error
	assert.NotPanics(t, func() { err = d.Flush() })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush boom")
	assert.Equal(t, int32(1), next.flushes.Load(), "后续 Sink 照常 flush")
}

func TestDispatcher_CloseSurvivesSinkPanic(t *testing.T) {
	next := &recordSink{}
	d, err := New().
		Custom(customSink(&panicSink{}), LevelInfo).
		Custom(customSink(next), LevelInfo).
		Build()
	require.NoError(t, err)

	assert.NotPanics(t, func() { err = d.Close() })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush boom")
	assert.Contains(t, err.Error(), "close boom")
	assert.True(t, next.closed.Load())
}

func TestDispatcher_FlushInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first, second := NewMockSink(ctrl), NewMockSink(ctrl)
	d, err := New().Custom(customSink(first), LevelInfo).Custom(customSink(second), LevelInfo).Build()
	require.NoError(t, err)

	gomock.InOrder(
		first.EXPECT().Flush().Return(errors.New("first")),
		second.EXPECT().Flush().Return(nil),
	)
	assert.Error(t, d.Flush())
}

func TestDispatcher_CloseIdempotent(t *testing.T) {
	sink := &recordSink{}
	d, err := New().Custom(customSink(sink), LevelInfo).Build()
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.True(t, sink.closed.Load())
	assert.Equal(t, int32(1), sink.flushes.Load())
}

// ============================================================================
// 并发与观测
// ============================================================================

func TestDispatcher_ConcurrentLog(t *testing.T) {
	sink := &recordSink{}
	d := buildWith(t, New().Custom(customSink(sink), LevelInfo))

	const goroutines, perG = 8, 100
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perG {
				d.Log(Event{Level: LevelInfo, Message: strconv.Itoa(g*perG + i)})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, sink.messages(), goroutines*perG)
}

type countingObserver struct {
	mu       sync.Mutex
	ops      map[string]int
	statuses map[xmetrics.Status]int
}

func (o *countingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ops == nil {
		o.ops = make(map[string]int)
	}
	o.ops[opts.Component+"."+opts.Operation]++
	return ctx, countingSpan{o}
}

type countingSpan struct{ o *countingObserver }

func (s countingSpan) End(r xmetrics.Result) {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	if s.o.statuses == nil {
		s.o.statuses = make(map[xmetrics.Status]int)
	}
	st := r.Status
	if st == "" {
		st = xmetrics.StatusOK
		if r.Err != nil {
			st = xmetrics.StatusError
		}
	}
	s.o.statuses[st]++
}

func TestDispatcher_Observer(t *testing.T) {
	obs := &countingObserver{}
	d := buildWith(t, New().SetObserver(obs).
		Custom(customSink(&recordSink{}), LevelInfo).
		Custom(customSink(&recordSink{}), LevelError))

	d.LogContext(context.Background(), Event{Level: LevelInfo})
	require.NoError(t, d.Flush())

	assert.Equal(t, 1, obs.ops["xlog.sink.write"])
	assert.Equal(t, 1, obs.ops["xlog.flush"])
}
