package xrotate

import "os"

// withOpenFunc 替换打开文件的函数，用于注入 I/O 失败。
func withOpenFunc(fn func(string, int, os.FileMode) (*os.File, error)) Option {
	return func(c *config) {
		c.openFile = fn
	}
}
