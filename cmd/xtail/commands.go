package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xtail/pkg/config/xconf"
	"github.com/omeyang/xtail/pkg/observability/xlog"
)

// defaultTarget emit/pipe 的默认 target。
const defaultTarget = "xtail"

// maxLineSize pipe 单行上限，超出的行被截断为多条事件。
const maxLineSize = 1 << 20

// exitError 表示需要非零退出码但已完成输出的场景。
// 命令内部已完成所有输出，main 只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createEmitCommand(),
		createPipeCommand(),
		createPruneCommand(),
		createCheckCommand(),
	}
}

// eventFlags emit 与 pipe 共用的事件 flag。
func eventFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "level",
			Aliases: []string{"l"},
			Usage:   "事件级别 (trace/debug/info/warn/error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "事件 target，用于前缀过滤",
			Value:   defaultTarget,
		},
	}
}

// createEmitCommand 创建 emit 子命令。
func createEmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "emit",
		Aliases:   []string{"e"},
		Usage:     "写入一条日志",
		ArgsUsage: "<message...>",
		Flags:     eventFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdEmit(ctx, sourceOf(cmd), eventOptions{
				level:  cmd.String("level"),
				target: cmd.String("target"),
			}, strings.Join(cmd.Args().Slice(), " "), writer(cmd), errWriter(cmd))
		},
	}
}

// createPipeCommand 创建 pipe 子命令。
func createPipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "逐行读取标准输入，每个非空行写入一条日志",
		Flags: eventFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdPipe(ctx, sourceOf(cmd), eventOptions{
				level:  cmd.String("level"),
				target: cmd.String("target"),
			}, reader(cmd), writer(cmd), errWriter(cmd))
		},
	}
}

// createPruneCommand 创建 prune 子命令。
func createPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "清理按日日志目录中超过保留天数的文件",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "按日日志目录，可重复；与配置文件中 daily_file 的目录合并",
			},
			&cli.IntFlag{
				Name:    "retention",
				Aliases: []string{"r"},
				Usage:   "保留天数，覆盖配置文件的 retention_days",
			},
			&cli.StringFlag{
				Name:    "schedule",
				Aliases: []string{"s"},
				Usage:   "cron 表达式（如 \"0 3 * * *\"、\"@hourly\"），设置后常驻运行",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdPrune(ctx, sourceOf(cmd), pruneOptions{
				dirs:      cmd.StringSlice("dir"),
				retention: int(cmd.Int("retention")),
				schedule:  cmd.String("schedule"),
			}, writer(cmd), errWriter(cmd))
		},
	}
}

// createCheckCommand 创建 check 子命令。
func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "写入探测日志并确认每个文件 Sink 都收到了它",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdCheck(ctx, sourceOf(cmd), writer(cmd), errWriter(cmd))
		},
	}
}

// ----------------------------------------------------------------------------
// 配置加载
// ----------------------------------------------------------------------------

// configSource 全局 flag 指定的配置位置。
type configSource struct {
	path string
	key  string
}

func sourceOf(cmd *cli.Command) configSource {
	return configSource{path: cmd.String("config"), key: cmd.String("key")}
}

// load 读取配置文件；未指定路径时返回 nil。
func (s configSource) load() (xconf.Config, *xlog.FileConfig, error) {
	if s.path == "" {
		return nil, nil, nil
	}
	cfg, err := xconf.New(s.path)
	if err != nil {
		return nil, nil, err
	}
	fc, err := readFileConfig(cfg, s.key)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fc, nil
}

func readFileConfig(cfg xconf.Config, key string) (*xlog.FileConfig, error) {
	var fc xlog.FileConfig
	if err := cfg.Unmarshal(key, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// builder 按配置创建 Builder；未指定配置时只输出到控制台。
// 控制台 Sink 写 stdout，Sink 错误写 stderr。
func (s configSource) builder(stdout, stderr io.Writer) (*xlog.Builder, *xlog.FileConfig, error) {
	_, fc, err := s.load()
	if err != nil {
		return nil, nil, err
	}

	var b *xlog.Builder
	if fc == nil {
		b = xlog.New().Console(xlog.LevelTrace)
	} else if b, err = fc.Builder(); err != nil {
		return nil, nil, err
	}

	b.SetConsoleOutput(stdout).SetOnError(func(err error) {
		fmt.Fprintf(stderr, "xtail: %v\n", err)
	})
	return b, fc, nil
}

// ----------------------------------------------------------------------------
// emit / pipe
// ----------------------------------------------------------------------------

// eventOptions emit 与 pipe 的事件参数。
type eventOptions struct {
	level  string
	target string
}

func (o eventOptions) parse() (xlog.Level, error) {
	level, err := xlog.ParseLevel(o.level)
	if err != nil || level == xlog.LevelOff {
		return 0, usagef("无效级别 %q，可选值: trace, debug, info, warn, error", o.level)
	}
	return level, nil
}

// cmdEmit 写入一条日志后关闭分发器。
// Sink 错误已由 OnError 输出到 stderr，此处只映射退出码。
func cmdEmit(ctx context.Context, src configSource, o eventOptions, message string, stdout, stderr io.Writer) error {
	level, err := o.parse()
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return usagef("缺少日志内容")
	}

	d, err := buildDispatcher(src, stdout, stderr)
	if err != nil {
		return err
	}

	d.LogContext(ctx, xlog.Event{
		Time:    time.Now(),
		Level:   level,
		Target:  o.target,
		Message: message,
	})
	return finish(d)
}

// cmdPipe 逐行转发 in 直到 EOF 或 ctx 取消。
func cmdPipe(ctx context.Context, src configSource, o eventOptions, in io.Reader, stdout, stderr io.Writer) error {
	level, err := o.parse()
	if err != nil {
		return err
	}

	d, err := buildDispatcher(src, stdout, stderr)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.LogContext(ctx, xlog.Event{
			Time:    time.Now(),
			Level:   level,
			Target:  o.target,
			Message: line,
		})
	}

	if err := scanner.Err(); err != nil {
		return errors.Join(fmt.Errorf("read stdin: %w", err), d.Close())
	}
	return finish(d)
}

func buildDispatcher(src configSource, stdout, stderr io.Writer) (*xlog.Dispatcher, error) {
	b, _, err := src.builder(stdout, stderr)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// finish 关闭分发器；期间有任何 Sink 错误时以退出码 1 结束。
func finish(d *xlog.Dispatcher) error {
	if err := d.Close(); err != nil {
		return err
	}
	if d.ErrorCount() > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// ----------------------------------------------------------------------------
// IO 辅助
// ----------------------------------------------------------------------------

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func reader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
