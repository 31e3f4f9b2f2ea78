package xrun

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSignals 默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
// 每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// 设计决策: 测试通过 context 注入信号通道，而不是向进程发送真实信号。
// 生产路径上只多一次 context.Value 查找。

type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}

// ----------------------------------------------------------------------------
// 周期任务
// ----------------------------------------------------------------------------

// Ticker 返回按固定间隔执行 fn 的服务函数；immediate 为 true 时启动即执行一次。
//
// fn 返回错误时服务以该错误退出；ctx 取消时返回 ctx.Err()。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}

		// 已取消的 ctx 不触发立即执行
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Schedule 返回按 cron 表达式执行 fn 的服务函数。
//
// expr 使用标准五段格式（分 时 日 月 周），也接受 "@daily"、"@every 1h" 等描述符，
// 按本地时区计算。与 [Ticker] 一样 fn 失败即退出；fn 执行期间错过的触发点不补跑。
//
//	g.Go(xrun.Schedule("0 3 * * *", func(ctx context.Context) error {
//	    _, err := daily.Prune()
//	    return err
//	}))
func Schedule(expr string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return scheduleWithClock(expr, fn, time.Now)
}

func scheduleWithClock(expr string, fn func(ctx context.Context) error, now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sched, err := ParseSchedule(expr)
		if err != nil {
			return err
		}
		if fn == nil {
			return ErrNilFunc
		}

		for {
			t := now()
			timer := time.NewTimer(sched.Next(t).Sub(t))
			select {
			case <-timer.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
}

// ParseSchedule 解析 [Schedule] 使用的 cron 表达式，供调用方提前校验。
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}
