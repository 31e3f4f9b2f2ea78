// Package xrotate 提供日志文件的轮转与保留期清理。
//
// # 策略
//
// 纯函数，不持有状态：
//
//   - [ShouldRotate]: size >= max 时按大小轮转（max 为 0 表示关闭）
//   - [DateKey] / [NeedsSwitch]: 事件日期晚于当前日期时切换文件，日期只前进
//   - [BackupName] / [ShiftBackups]: <path>.old<N> 编号后移，编号上限 MaxBackups
//   - [Pruner]: 非递归扫描目录，删除年龄（整天）超过保留期的匹配文件
//
// # 实现
//
// [Rotator] 接口定义写入器的行为（Write/WriteAt/Rotate/Sync/Close），所有实现并发安全：
//
//   - [NewFile]: 固定路径，可选追加或截断，按大小轮转为 .oldN
//   - [NewDaily]: <dir>/<YYYY-MM-DD>.log，按事件日期切换，按大小轮转，按保留期清理
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转（时间戳备份名、gzip）
//
// 每个写入器用一把互斥锁覆盖"轮转检查 → 清理 → 追加"整个序列。
// 轮转、切换与清理失败通过 [WithOnError] 上报，当前行仍写入旧句柄；
// 只有追加本身的失败作为 Write 的返回值。
//
// # 构造检查
//
// 打开文件前依次执行路径规范化、父目录创建与可写性探测。
// 目标不可写时返回 [ErrPermission]，打开失败返回 [ErrIO]。
package xrotate
