package xlog

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

// 熔断默认值
const (
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second
)

// BreakerSettings Sink 熔断配置
//
// 连续失败 Failures 次后 Sink 进入断开状态：Cooldown 期间的事件不再调用 Sink，
// 直接以 [ErrSinkSuspended] 计数上报。冷却结束后放行一次试探写入，
// 成功则恢复，失败则重新计时。
type BreakerSettings struct {
	// Failures 触发熔断的连续失败次数，0 取默认值 5
	Failures uint32
	// Cooldown 断开状态的持续时间，0 取默认值 30s
	Cooldown time.Duration
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.Failures == 0 {
		s.Failures = DefaultBreakerFailures
	}
	if s.Cooldown <= 0 {
		s.Cooldown = DefaultBreakerCooldown
	}
	return s
}

// breakerSink 用熔断器包装 Sink 的写入；Enabled 与 Flush 直接透传。
//
// 设计决策: 熔断只作用于 Log。Flush 与 Close 是收尾操作，即使 Sink 处于断开状态
// 也要执行，否则已写入的数据可能丢失。
type breakerSink struct {
	Sink
	cb *gobreaker.CircuitBreaker[struct{}]
}

// 编译时接口检查
var _ io.Closer = (*breakerSink)(nil)

func newBreakerSink(kind SinkKind, index int, s Sink, settings BreakerSettings) *breakerSink {
	settings = settings.withDefaults()
	return &breakerSink{
		Sink: s,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        string(kind) + "#" + strconv.Itoa(index),
			MaxRequests: 1,
			Timeout:     settings.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= settings.Failures
			},
		}),
	}
}

// Log 断开期间不调用内层 Sink。内层 panic 计为一次失败后继续向上传播，
// 由 Dispatcher 统一恢复。
func (s *breakerSink) Log(e Event) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.Sink.Log(e)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrSinkSuspended, s.cb.Name(), err)
	}
	return err
}

// Close 关闭内层 Sink（若实现了 io.Closer）。
func (s *breakerSink) Close() error {
	if c, ok := s.Sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// State 返回熔断器状态。
func (s *breakerSink) State() gobreaker.State {
	return s.cb.State()
}
