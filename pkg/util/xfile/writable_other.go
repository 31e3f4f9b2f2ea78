//go:build !unix

package xfile

import (
	"errors"
	"os"
)

// 非 unix 平台没有 access(2)，退化为检查属主写位。
func accessWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0200 == 0 {
		return errors.New("read-only")
	}
	return nil
}
