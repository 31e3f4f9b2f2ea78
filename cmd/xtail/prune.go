package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/omeyang/xtail/pkg/config/xconf"
	"github.com/omeyang/xtail/pkg/lifecycle/xrun"
	"github.com/omeyang/xtail/pkg/observability/xlog"
	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// pruneOptions prune 子命令参数。
type pruneOptions struct {
	dirs      []string
	retention int
	schedule  string
}

// pruneJob 清理任务的当前参数。
//
// flag 给出的值优先于配置文件；配置热更新只改变配置文件贡献的部分，
// 因此 --retention 一旦指定就不会被 reload 覆盖。
type pruneJob struct {
	flagDirs      []string
	flagRetention int
	now           func() time.Time

	mu        sync.Mutex
	dirs      []string
	retention int
}

func newPruneJob(o pruneOptions, fc *xlog.FileConfig) *pruneJob {
	j := &pruneJob{
		flagDirs:      o.dirs,
		flagRetention: o.retention,
		now:           time.Now,
	}
	j.apply(fc)
	return j
}

// apply 合并 flag 与配置文件；fc 可为 nil。
func (j *pruneJob) apply(fc *xlog.FileConfig) {
	dirs := slices.Clone(j.flagDirs)
	retention := j.flagRetention
	if fc != nil {
		for i := range fc.Sinks {
			if fc.Sinks[i].Kind() == xlog.KindDailyFile && fc.Sinks[i].Dir != "" {
				dirs = append(dirs, fc.Sinks[i].Dir)
			}
		}
		if retention <= 0 {
			retention = fc.RetentionDays
		}
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	j.mu.Lock()
	j.dirs, j.retention = dirs, retention
	j.mu.Unlock()
}

func (j *pruneJob) snapshot() ([]string, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dirs, j.retention
}

// run 依次清理每个目录，单个目录失败不影响其余目录。
// 当天的文件名作为 Keep 传入，即使它的 mtime 异常也不会被删。
func (j *pruneJob) run() ([]string, error) {
	dirs, retention := j.snapshot()
	keep := xrotate.DailyName(xrotate.DateKey(j.now()))

	var (
		removed []string
		errs    []error
	)
	for _, dir := range dirs {
		p := &xrotate.Pruner{
			Dir:           dir,
			RetentionDays: retention,
			Keep:          keep,
			Now:           j.now,
		}
		got, err := p.Prune()
		removed = append(removed, got...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// cmdPrune 执行一次清理；指定 schedule 时按 cron 表达式常驻运行直到收到信号，
// 同时指定了配置文件的话还会监视它，变更后刷新目录与保留天数。
func cmdPrune(ctx context.Context, src configSource, o pruneOptions, stdout, stderr io.Writer) error {
	if o.retention < 0 {
		return usagef("保留天数不能为负数: %d", o.retention)
	}
	cfg, fc, err := src.load()
	if err != nil {
		return err
	}

	job := newPruneJob(o, fc)
	dirs, retention := job.snapshot()
	if len(dirs) == 0 {
		return usagef("未指定目录: 使用 --dir 或在配置文件中声明 daily_file")
	}
	if retention <= 0 {
		return usagef("未指定保留天数: 使用 --retention 或在配置文件中设置 retention_days")
	}

	if o.schedule == "" {
		removed, err := job.run()
		for _, path := range removed {
			fmt.Fprintf(stdout, "removed %s\n", path)
		}
		fmt.Fprintf(stdout, "pruned %d file(s) in %d dir(s), retention %d day(s)\n",
			len(removed), len(dirs), retention)
		return err
	}

	if _, err := xrun.ParseSchedule(o.schedule); err != nil {
		return &usageError{msg: err.Error()}
	}
	return runScheduledPrune(ctx, cfg, src.key, o.schedule, job, stderr)
}

// runScheduledPrune 常驻模式。生命周期与清理结果通过 xlog 控制台 Sink 写到 stderr。
func runScheduledPrune(ctx context.Context, cfg xconf.Config, key, schedule string, job *pruneJob, stderr io.Writer) error {
	ld, err := xlog.New().SetConsoleOutput(stderr).Console(xlog.LevelInfo).Build()
	if err != nil {
		return err
	}
	defer ld.Close()
	logger := slog.New(ld.Handler()).With(xlog.Component("prune"), slog.String("schedule", schedule))

	services := []func(context.Context) error{
		xrun.Schedule(schedule, func(context.Context) error {
			removed, err := job.run()
			for _, path := range removed {
				logger.Info("pruned", xlog.Path(path))
			}
			// 单次失败（目录暂不可读等）只记录，等待下一个触发点
			if err != nil {
				logger.Warn("prune failed", xlog.Err(err), xlog.Count(int64(len(removed))))
			}
			return nil
		}),
	}
	if cfg != nil {
		services = append(services, watchPruneConfig(cfg, key, job, logger))
	}

	dirs, retention := job.snapshot()
	logger.Info("prune scheduled", xlog.Dirs(dirs), xlog.RetentionDays(retention))

	err = xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithName("xtail-prune"),
		xrun.WithLogger(logger),
	}, services...)
	if errors.Is(err, xrun.ErrSignal) {
		return nil
	}
	return err
}

// watchPruneConfig 返回监视配置文件的服务。解析失败时保留旧参数。
func watchPruneConfig(cfg xconf.Config, key string, job *pruneJob, logger *slog.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		err := xconf.Watch(ctx, cfg, func(c xconf.Config) {
			fc, err := readFileConfig(c, key)
			if err != nil {
				logger.Warn("config reload rejected", xlog.Err(err))
				return
			}
			job.apply(fc)
			dirs, retention := job.snapshot()
			logger.Info("config reloaded", xlog.Dirs(dirs), xlog.RetentionDays(retention))
		}, xconf.WithWatchErrorHandler(func(err error) {
			logger.Warn("config watch", xlog.Err(err))
		}))
		if xconf.IsWatchStopped(err) {
			return nil
		}
		return err
	}
}
