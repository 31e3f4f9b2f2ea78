package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group 一组协同运行的服务：任一服务返回错误或 Group 被取消时，
// 其余服务的 ctx 一并取消。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("xtail-prune"))
//	g.Go(xrun.Schedule("@daily", prune))
//	g.Go(func(ctx context.Context) error { return xconf.Watch(ctx, cfg, onChange) })
//	err := g.Wait()
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 ctx 在任一服务失败或 Cancel 时取消。
// nil ctx 视为 context.Background()，nil Option 被跳过。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动服务。fn 应在 ctx.Done() 后尽快返回。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，并记录服务的启动与退出。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", name))
		log.Debug("service starting")

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("service exited with error", slog.Any("error", err))
		} else {
			log.Debug("service stopped")
		}
		return err
	})
}

// Wait 等待全部服务退出。
//
// 返回第一个服务错误；因 Group 取消产生的 context.Canceled 被过滤，
// 但 Cancel(cause) 或信号设置的原因会被返回，即使所有服务都返回 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug("all services stopped", slog.String("group", g.opts.name))

	switch {
	case errors.Is(err, context.Canceled):
		// causeCtx 未取消说明 Canceled 来自服务内部，原样返回
		if g.causeCtx.Err() == nil {
			return err
		}
		return g.cause()
	case err == nil && g.causeCtx.Err() != nil:
		return g.cause()
	default:
		return err
	}
}

// cause 返回显式的取消原因；普通取消返回 nil。
func (g *Group) cause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务，cause 由 Wait 返回。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回服务共享的 ctx。
func (g *Group) Context() context.Context {
	return g.ctx
}

// watchSignals 收到信号后以 *SignalError 取消 Group。
func (g *Group) watchSignals(signals []os.Signal) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		testc := testSigChan(ctx)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)

		var sig os.Signal
		select {
		case sig = <-testc:
		case sig = <-sigCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.cancel(&SignalError{Signal: sig})
		return nil
	}
}

// Run 运行服务直到全部退出、某个服务失败或收到 [DefaultSignals] 中的信号。
// 信号退出返回 *SignalError；全部服务正常返回时信号监听随之停止，返回 nil。
//
//	err := xrun.Run(ctx, xrun.Schedule("@hourly", prune))
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常停止
//	}
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，支持选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// 空列表会让 signal.Notify 订阅所有信号，这里统一回退到默认列表
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go(g.watchSignals(signals))
	}

	var wg sync.WaitGroup
	for _, svc := range services {
		wg.Add(1)
		g.Go(func(ctx context.Context) error {
			defer wg.Done()
			if svc == nil {
				return ErrNilFunc
			}
			return svc(ctx)
		})
	}
	// 服务全部退出后结束信号监听；已有的取消原因不会被覆盖
	g.Go(func(context.Context) error {
		wg.Wait()
		g.cancel(nil)
		return nil
	})
	return g.Wait()
}
