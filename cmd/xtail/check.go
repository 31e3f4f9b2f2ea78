package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xtail/pkg/observability/xlog"
	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// 探测结果
const (
	statusOK   = "ok"
	statusFail = "FAIL"
	statusSkip = "skip"
)

// checkResult 单个 Sink 的探测结果。
type checkResult struct {
	kind   xlog.SinkKind
	status string
	detail string
}

// cmdCheck 用配置构建分发器，写入一条带 UUID 的探测事件并 Flush，
// 再逐个读取文件 Sink 的目标文件确认事件已落盘。
//
// 控制台 Sink 无法回读，标记为 skip；级别不接收探测事件的 Sink 同样 skip。
func cmdCheck(ctx context.Context, src configSource, stdout, stderr io.Writer) error {
	if src.path == "" {
		return usagef("check 需要 --config")
	}

	b, fc, err := src.builder(io.Discard, stderr)
	if err != nil {
		return err
	}
	d, err := b.Build()
	if err != nil {
		return err
	}

	token := uuid.NewString()
	probe := probeEvent(fc, token, time.Now())
	d.LogContext(ctx, probe)
	flushErr := d.Flush()

	results := verifySinks(fc, probe, token)
	closeErr := d.Close()

	failed := false
	for _, r := range results {
		fmt.Fprintf(stdout, "%-4s  %-17s  %s\n", r.status, r.kind, r.detail)
		if r.status == statusFail {
			failed = true
		}
	}
	fmt.Fprintf(stdout, "probe %s level=%s target=%s\n", token, probe.Level, probe.Target)

	if err := errors.Join(flushErr, closeErr); err != nil {
		fmt.Fprintf(stderr, "xtail: %v\n", err)
		failed = true
	}
	if failed || d.ErrorCount() > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// probeEvent 选择能通过全局过滤的级别与 target：
// 级别取白名单中最高的一个（未配置白名单时为 error），target 取第一个前缀。
func probeEvent(fc *xlog.FileConfig, token string, now time.Time) xlog.Event {
	level := xlog.LevelError
	if len(fc.Levels) > 0 {
		level = xlog.LevelTrace
		for _, s := range fc.Levels {
			// 级别已在 Builder 中校验过
			if l, err := xlog.ParseLevel(s); err == nil && l != xlog.LevelOff && l > level {
				level = l
			}
		}
	}
	target := defaultTarget + ".check"
	if len(fc.Targets) > 0 {
		target = fc.Targets[0]
	}
	return xlog.Event{
		Time:    now,
		Level:   level,
		Target:  target,
		Message: "xtail check probe " + token,
	}
}

// verifySinks 按配置顺序检查每个 Sink。
func verifySinks(fc *xlog.FileConfig, probe xlog.Event, token string) []checkResult {
	results := make([]checkResult, 0, len(fc.Sinks))
	for i := range fc.Sinks {
		sc := &fc.Sinks[i]
		r := checkResult{kind: sc.Kind()}

		level, err := sc.MinLevel()
		if err != nil || !level.Allows(probe.Level) {
			r.status, r.detail = statusSkip, fmt.Sprintf("level %s does not accept %s", level, probe.Level)
			results = append(results, r)
			continue
		}

		var path string
		switch r.kind {
		case xlog.KindSingleFile, xlog.KindLumberjack:
			path = sc.Path
		case xlog.KindDailyFile:
			path = filepath.Join(sc.Dir, xrotate.DailyName(xrotate.DateKey(probe.Time)))
		default:
			r.status, r.detail = statusSkip, "not readable"
			results = append(results, r)
			continue
		}

		r.status, r.detail = probeFile(path, token)
		results = append(results, r)
	}
	return results
}

func probeFile(path, token string) (status, detail string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return statusFail, err.Error()
	}
	if !bytes.Contains(data, []byte(token)) {
		return statusFail, path + ": probe not found"
	}
	return statusOK, path
}
