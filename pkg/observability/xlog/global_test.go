package xlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall_Nil(t *testing.T) {
	resetInstalled(t)
	assert.ErrorIs(t, Install(nil), ErrNilDispatcher)
	assert.Nil(t, Installed())
}

func TestInstall_Once(t *testing.T) {
	resetInstalled(t)

	first := buildWith(t, New().Custom(customSink(&recordSink{}), LevelInfo))
	second := buildWith(t, New().Custom(customSink(&recordSink{}), LevelInfo))

	require.NoError(t, Install(first))
	assert.ErrorIs(t, Install(second), ErrAlreadyInstalled)
	assert.Same(t, first, Installed())
}

func TestGlobal_NoopBeforeInstall(t *testing.T) {
	resetInstalled(t)

	assert.NotPanics(t, func() {
		Info("app", "dropped %d", 1)
		Error("app", "dropped")
	})
	assert.NoError(t, Flush())
}

func TestGlobal_Functions(t *testing.T) {
	resetInstalled(t)

	sink := &recordSink{}
	d := buildWith(t, New().SetClock(func() time.Time { return testTime }).Custom(customSink(sink), LevelTrace))
	require.NoError(t, Install(d))

	Trace("app", "t")
	Debug("app", "d")
	Info("app", "i %d", 1)
	Warn("app", "w")
	Error("app", "e %s", "x")
	Log(LevelInfo, "app::sub", "literal %d")

	assert.Equal(t, []string{"t", "d", "i 1", "w", "e x", "literal %d"}, sink.messages())

	e := sink.last()
	assert.Equal(t, "app::sub", e.Target)
	assert.True(t, e.Time.Equal(testTime))
	assert.True(t, strings.HasSuffix(e.File, "global_test.go"), "caller 应指向业务代码：%s", e.File)

	require.NoError(t, Flush())
	assert.Equal(t, int32(1), sink.flushes.Load())
}

func TestGlobal_FilteredBeforeFormat(t *testing.T) {
	resetInstalled(t)

	sink := &recordSink{}
	d := buildWith(t, New().SetFilterTargets("app").Custom(customSink(sink), LevelWarn))
	require.NoError(t, Install(d))

	Info("app", "below sink level")
	Error("other", "wrong target")
	Error("app", "kept")

	assert.Equal(t, []string{"kept"}, sink.messages())
}

func TestInstall_SetsSlogDefault(t *testing.T) {
	resetInstalled(t)

	var buf bytes.Buffer
	d := buildWith(t, New().SetConsoleOutput(&buf).Console(LevelInfo))
	require.NoError(t, Install(d))

	slog.Info("via slog", "target", "app")

	assert.Contains(t, buf.String(), "INFO app via slog")
}
