package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
// Linux 内核会在空字节处截断路径，导致 Go 代码与操作系统看到的路径不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 均视为分隔符。逐字符扫描，零分配。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对日志文件路径进行格式检查和规范化。
//
// 拒绝空路径、空字节、以分隔符结尾的目录路径以及相对穿越（"../x.log"）。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析，不视为穿越。
// 本函数只做格式净化，不限制目标目录；需要目录约束时使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会移除尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoin 将相对路径 name 拼接到目录 base，并保证结果仍在 base 内。
//
// base 可以是相对路径（如 "logs"），会先经 filepath.Abs 转为绝对路径。
// name 必须是相对路径且不含 ".." 段。不解析符号链接。
//
//	SafeJoin("/var/log", "app.log")       // -> "/var/log/app.log", nil
//	SafeJoin("/var/log", "../etc/passwd") // -> "", ErrPathTraversal
//	SafeJoin("/var/log", "/etc/passwd")   // -> "", ErrInvalidPath
func SafeJoin(base, name string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if name == "" {
		return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) || containsNullByte(name) {
		return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "\\") {
		return "", fmt.Errorf("path must be relative (absolute path not allowed): %w", ErrInvalidPath)
	}

	cleanName := filepath.Clean(name)
	if hasDotDotSegment(cleanName) {
		return "", fmt.Errorf("path traversal in path: %w", ErrPathTraversal)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w: %w", ErrInvalidPath, err)
	}

	joined := filepath.Join(absBase, cleanName)
	rel, err := filepath.Rel(absBase, joined)
	if err != nil || hasDotDotSegment(rel) || rel == "." {
		return "", ErrPathEscaped
	}
	return joined, nil
}
