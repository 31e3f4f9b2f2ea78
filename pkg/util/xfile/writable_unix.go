//go:build unix

package xfile

import "golang.org/x/sys/unix"

// access 可在测试中替换，用于覆盖不可写分支（root 下 W_OK 总是成功）。
// 替换该变量的测试不可使用 t.Parallel()。
var access = unix.Access

func accessWritable(path string) error {
	return access(path, unix.W_OK)
}
