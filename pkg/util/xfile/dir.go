package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（rwxr-x---），符合 gosec G301 建议。
const DefaultDirPerm = 0750

// EnsureDir 确保文件的父目录存在，使用 [DefaultDirPerm] 创建。
// 目录已存在时不报错，也不修改其权限。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 确保文件的父目录存在，使用指定权限。
//
// perm 必须包含所有者执行位（0100），否则目录无法遍历。
// 底层使用 os.MkdirAll，会跟随符号链接。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// CheckWritable 检查 path 是否可供当前进程写入。
//
// 父目录总是被检查：轮转改名、按日创建新文件都需要目录写权限，
// 只有文件本身可写并不够。path 已存在时还会检查文件自身。
// 不可写返回包装了 [ErrNotWritable] 的错误；其余错误（如父目录不存在）原样返回。
func CheckWritable(path string) error {
	if path == "" {
		return fmt.Errorf("path is required: %w", ErrEmptyPath)
	}
	if containsNullByte(path) {
		return fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	targets := []string{dir}
	if _, err := os.Stat(path); err == nil {
		targets = append(targets, path)
	} else if !os.IsNotExist(err) {
		return err
	}

	for _, target := range targets {
		if err := accessWritable(target); err != nil {
			return fmt.Errorf("%s: %w: %w", target, ErrNotWritable, err)
		}
	}
	return nil
}
