package xmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nilSpanObserver struct{}

func (nilSpanObserver) Start(context.Context, SpanOptions) (context.Context, Span) {
	return nil, nil
}

func TestStart_NilObserver(t *testing.T) {
	ctx, span := Start(context.Background(), nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
	span.End(Result{})
}

func TestStart_NilContext(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 归一化
	ctx, span := Start(nil, NoopObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestStart_ObserverReturnsNil(t *testing.T) {
	ctx, span := Start(context.Background(), nilSpanObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   Status
	}{
		{"empty", Result{}, StatusOK},
		{"error", Result{Err: errors.New("boom")}, StatusError},
		{"explicit wins over err", Result{Status: StatusSkipped, Err: errors.New("suspended")}, StatusSkipped},
		{"explicit error without err", Result{Status: StatusError}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.status())
		})
	}
}

func TestSinkAttr(t *testing.T) {
	a := Sink("daily_file")
	assert.Equal(t, AttrSink, a.Key)
	assert.Equal(t, "daily_file", a.Value)
}
