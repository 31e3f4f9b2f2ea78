package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/omeyang/xtail/pkg/util/xfile"
)

// day 保留期计算的时间单位
const day = 24 * time.Hour

// Pruner 按保留天数清理目录中的历史日志文件。
//
// 只扫描 Dir 本层（不递归），只处理 Match 接受的普通文件；
// 符号链接与子目录一律跳过。Keep 是当前打开文件的文件名，永不删除。
//
// 单个文件的 stat/删除失败被收集后一并返回，不中断其余文件的扫描。
type Pruner struct {
	// Dir 扫描目录
	Dir string
	// RetentionDays 保留天数；<= 0 时 Prune 不做任何事
	RetentionDays int
	// Match 文件名匹配函数；nil 时使用 [MatchDaily]
	Match func(name string) bool
	// Keep 当前打开的文件名（不含目录），跳过
	Keep string
	// Now 时钟；nil 时使用 time.Now
	Now func() time.Time

	// remove 可注入的删除函数（nil 时使用 os.Remove），仅用于测试
	remove func(string) error
}

// AgeDays 返回 mtime 距 now 的整天数（向下取整，未来时间视为 0）。
func AgeDays(now, mtime time.Time) int {
	d := now.Sub(mtime)
	if d < 0 {
		return 0
	}
	return int(d / day)
}

// Prune 执行一次清理，返回被删除文件的完整路径。
//
// 文件年龄严格大于 RetentionDays 时才删除：保留 7 天时，
// 8 天前的文件被删除，6 天或 7 天前的文件保留。
func (p *Pruner) Prune() ([]string, error) {
	if p.RetentionDays <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %w", ErrIO, p.Dir, err)
	}

	match := p.Match
	if match == nil {
		match = MatchDaily
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	remove := p.remove
	if remove == nil {
		remove = os.Remove
	}

	at := now()
	var (
		removed []string
		errs    []error
	)
	for _, entry := range entries {
		name := entry.Name()
		if name == p.Keep || !entry.Type().IsRegular() || !match(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// 扫描期间被并发删除的文件不算错误
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat %s: %w", name, err))
			}
			continue
		}
		if AgeDays(at, info.ModTime()) <= p.RetentionDays {
			continue
		}

		full, err := xfile.SafeJoin(p.Dir, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := remove(full); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("%w: remove %s: %w", ErrIO, full, err))
			}
			continue
		}
		removed = append(removed, full)
	}
	return removed, errors.Join(errs...)
}
