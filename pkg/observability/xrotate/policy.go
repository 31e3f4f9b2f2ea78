package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"
)

// dateLayout 日期文件名格式（YYYY-MM-DD）
const dateLayout = "2006-01-02"

// dailySuffix 按日文件扩展名
const dailySuffix = ".log"

// backupInfix 按大小轮转的备份文件名中缀：<path>.old<N>
const backupInfix = ".old"

// dailyPattern 匹配按日文件及其按大小轮转产生的备份
var dailyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.log(\.old\d+)?$`)

// ShouldRotate 判断当前文件是否需要按大小轮转。
// maxSize <= 0 表示未配置大小上限，永不轮转。
func ShouldRotate(size, maxSize int64) bool {
	return maxSize > 0 && size >= maxSize
}

// DateKey 返回 t 在本地时区的日期键（YYYY-MM-DD）。
func DateKey(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// NeedsSwitch 判断是否需要从 current 日期切换到 target 日期。
//
// 日期键按字典序比较，与时间先后一致。只有 target 晚于 current 时才切换，
// 乱序到达的旧时间戳不会让写入回退到已放弃的文件。
func NeedsSwitch(current, target string) bool {
	return target > current
}

// DailyName 返回日期键对应的文件名。
func DailyName(key string) string {
	return key + dailySuffix
}

// MatchDaily 判断文件名是否属于按日文件（含其 .oldN 备份）。
func MatchDaily(name string) bool {
	return dailyPattern.MatchString(name)
}

// BackupName 返回 path 的第 n 个备份文件名：<path>.old<n>。
func BackupName(path string, n int) string {
	return path + backupInfix + strconv.Itoa(n)
}

// ShiftBackups 将 path 的备份整体后移一位并把 path 自身变为 .old1。
//
// 编号最大为 maxBackups：.old<maxBackups> 先被删除，随后按降序
// .old<k> → .old<k+1>，最后 path → .old1。maxBackups < 1 按 1 处理。
//
// 任何一步失败立即返回（继续后移会覆盖尚未移走的备份）。
// 缺失的中间编号不视为错误。
func ShiftBackups(path string, maxBackups int) error {
	if maxBackups < 1 {
		maxBackups = 1
	}

	oldest := BackupName(path, maxBackups)
	if err := os.Remove(oldest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", ErrIO, oldest, err)
	}

	for k := maxBackups - 1; k >= 1; k-- {
		from, to := BackupName(path, k), BackupName(path, k+1)
		if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: rename %s: %w", ErrIO, from, err)
		}
	}

	if err := os.Rename(path, BackupName(path, 1)); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrIO, path, err)
	}
	return nil
}
