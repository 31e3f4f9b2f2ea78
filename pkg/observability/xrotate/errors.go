package xrotate

import "errors"

// 构造与 I/O 错误
var (
	// ErrPermission 目标目录或文件对当前进程不可写（构造期检查）
	ErrPermission = errors.New("xrotate: target is not writable")

	// ErrIO 文件打开、创建、重命名或删除失败
	ErrIO = errors.New("xrotate: file operation failed")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名或目录为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize 最大文件大小无效（不能为负，且不超过 10 GB）
	ErrInvalidMaxSize = errors.New("xrotate: invalid max size")

	// ErrInvalidMaxBackups 备份数量无效（必须在 1~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid max backups")

	// ErrInvalidRetention 保留天数无效（必须在 0~3650 范围内）
	ErrInvalidRetention = errors.New("xrotate: invalid retention days")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)
