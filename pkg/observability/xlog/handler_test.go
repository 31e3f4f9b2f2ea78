package xlog

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlogLogger(t *testing.T, b *Builder) (*slog.Logger, *recordSink) {
	t.Helper()
	sink := &recordSink{}
	d := buildWith(t, b.Custom(customSink(sink), LevelTrace))
	return slog.New(d.Handler()), sink
}

func TestHandler_TargetAttr(t *testing.T) {
	logger, sink := newSlogLogger(t, New())

	logger.Info("connected", "target", "app::db", "host", "db-1")

	e := sink.last()
	assert.Equal(t, "app::db", e.Target)
	assert.Equal(t, "connected host=db-1", e.Message)
	assert.Equal(t, LevelInfo, e.Level)
}

func TestHandler_DefaultTargetIsCallerPackage(t *testing.T) {
	logger, sink := newSlogLogger(t, New())

	logger.Warn("no target")

	e := sink.last()
	assert.Equal(t, "github.com/omeyang/xtail/pkg/observability/xlog", e.Target)
	assert.True(t, strings.HasSuffix(e.File, "handler_test.go"), e.File)
	assert.Positive(t, e.Line)
}

func TestHandler_TargetFilterApplies(t *testing.T) {
	logger, sink := newSlogLogger(t, New().SetFilterTargets("app"))

	logger.Info("kept", "target", "app::http")
	logger.Info("dropped", "target", "vendor")
	logger.Info("dropped too")

	assert.Equal(t, []string{"kept"}, sink.messages())
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	logger, sink := newSlogLogger(t, New())

	logger.With("target", "svc", "req", "r1").
		WithGroup("http").
		Info("done", "status", 200, "path", "/a b")

	e := sink.last()
	assert.Equal(t, "svc", e.Target)
	assert.Equal(t, `done req=r1 http.status=200 http.path="/a b"`, e.Message)
}

func TestHandler_GroupedTargetIsPlainAttr(t *testing.T) {
	logger, sink := newSlogLogger(t, New())

	logger.WithGroup("g").Info("m", "target", "x")

	e := sink.last()
	assert.NotEqual(t, "x", e.Target)
	assert.Equal(t, "m g.target=x", e.Message)
}

func TestHandler_NestedGroupAttr(t *testing.T) {
	logger, sink := newSlogLogger(t, New())

	logger.Info("m", slog.Group("user", "id", 7, slog.Group("org", "name", "acme")), slog.Group("empty"))

	assert.Equal(t, "m user.id=7 user.org.name=acme", sink.last().Message)
}

func TestHandler_Enabled(t *testing.T) {
	d := buildWith(t, New().Custom(customSink(&recordSink{}), LevelWarn))
	h := d.Handler()
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestHandler_EnabledRespectsLevelAllowList(t *testing.T) {
	d := buildWith(t, New().SetFilterLevels(LevelError).Custom(customSink(&recordSink{}), LevelTrace))
	h := d.Handler()

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestHandler_ZeroTimeUsesClock(t *testing.T) {
	sink := &recordSink{}
	d := buildWith(t, New().SetClock(func() time.Time { return testTime }).Custom(customSink(sink), LevelTrace))

	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "m", 0)
	require.NoError(t, d.Handler().Handle(context.Background(), r))

	e := sink.last()
	assert.True(t, e.Time.Equal(testTime))
	assert.Empty(t, e.File)
	assert.Empty(t, e.Target)
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := map[string]string{
		"plain":  "plain",
		"":       `""`,
		"a b":    `"a b"`,
		`q"`:     `"q\""`,
		"k=v":    `"k=v"`,
		"line\n": `"line\n"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quoteIfNeeded(in), in)
	}
}

func TestPackageOf(t *testing.T) {
	tests := []struct {
		fn, want string
	}{
		{"github.com/a/b/pkg.(*T).M", "github.com/a/b/pkg"},
		{"github.com/a/b/pkg.Func.func1", "github.com/a/b/pkg"},
		{"main.main", "main"},
		{"github.com/a/b.v2/pkg.F", "github.com/a/b.v2/pkg"},
		{"noDot", "noDot"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, packageOf(tt.fn), tt.fn)
	}
}
