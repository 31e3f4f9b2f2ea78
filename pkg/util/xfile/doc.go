// Package xfile 提供日志文件落盘所需的路径与目录工具。
//
// # 函数一览
//
//   - [SanitizePath]: 规范化日志文件路径，拒绝空路径、空字节、相对穿越和目录路径
//   - [SafeJoin]: 将文件名拼接到日志目录，保证结果不逃出该目录（保留清理使用）
//   - [EnsureDir]: 创建文件的父目录（默认 0750）
//   - [CheckWritable]: 在打开文件之前探测目标是否可写
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才视为穿越，"app..2024.log" 之类的文件名合法：
//
//	SafeJoin("/var/log", "2024-01-01.log") // ✓ "/var/log/2024-01-01.log"
//	SafeJoin("/var/log", "../etc/passwd")  // ✗ ErrPathTraversal
//
// # 可写性探测
//
// CheckWritable 同时检查父目录与已存在的文件：日志轮转需要在目录中改名和创建文件。
// unix 平台使用 access(2) 的 W_OK 判断，其结果以进程的真实
// uid/gid 为准；以 root 运行时只读目录通常仍然可写。探测与随后的 open 之间存在
// TOCTOU 窗口，open 失败仍需单独处理。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	if err := xfile.CheckWritable("/var/log/app"); errors.Is(err, xfile.ErrNotWritable) {
//	    // 目录只读
//	}
package xfile
