// xtail 是 xlog 分发器的命令行工具：按配置文件把日志写入各个 Sink，
// 清理过期的按日日志，以及验证一份配置能否真正落盘。
//
// 用法:
//
//	xtail [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   分发器配置文件（YAML/JSON），缺省时只输出到控制台
//	-k, --key      配置文件中分发器配置所在的路径 (默认: log)
//
// 命令:
//
//	emit <msg>     写入一条日志
//	pipe           逐行读取标准输入，每行写入一条日志
//	prune          按保留天数清理按日日志目录，可按 cron 表达式常驻运行
//	check          写入一条带随机标识的探测日志并确认它出现在所有文件 Sink 中
//	help           显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 执行失败（配置加载失败、Sink 写入失败、探测日志缺失等）
//	2: 参数错误（无效级别、缺少必需参数、无效 cron 表达式、未知命令等）
//
// 示例:
//
//	xtail emit --level warn --target app.db "slow query"
//	tail -F app.out | xtail -c xtail.yaml pipe --target app
//	xtail prune --dir logs --retention 7
//	xtail -c xtail.yaml prune --schedule "0 3 * * *"
//	xtail -c xtail.yaml check
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// defaultConfigKey 配置文件中分发器配置的默认路径。
const defaultConfigKey = "log"

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xtail",
		Usage:   "可插拔日志分发器命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "分发器配置文件（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "分发器配置在文件中的路径，空字符串表示整个文件",
				Value:   defaultConfigKey,
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 execute() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(errWriter(cmd), err)
			}
		},
		Description: `xtail 把 xlog 分发器暴露为命令行工具。

配置文件示例 (xtail.yaml):
  log:
    levels: [info, warn, error]
    retention_days: 7
    sinks:
      - type: formatted_console
      - type: daily_file
        dir: logs
        level: debug

未指定 --config 时 emit/pipe 只输出到控制台，prune 需要 --dir 与 --retention。`,
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	return execute(ctx, createApp(), os.Args, os.Stderr)
}

// execute 运行 app 并把错误映射为退出码。
func execute(ctx context.Context, app *cli.Command, args []string, stderr io.Writer) int {
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	// CLI 框架产生的参数错误（未知 flag、缺少必需 flag）同样返回 2
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 判断 err 是否来自 urfave/cli 的参数解析。
//
// urfave/cli 没有导出参数错误类型，只能按消息内容识别。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"flag provided but not defined",
		"invalid value",
		"Required flag",
		"No help topic",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// setupSignalHandler 设置信号处理。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel() // 第一次信号: 优雅取消

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130) // 第二次信号: 强制退出（pipe 可能阻塞在读 stdin 上）
	}()
}
