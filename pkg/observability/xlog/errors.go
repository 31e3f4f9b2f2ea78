package xlog

import (
	"errors"

	"github.com/omeyang/xtail/pkg/observability/xrotate"
)

// 构建期错误
var (
	// ErrNoSinks Build 时未注册任何 Sink
	ErrNoSinks = errors.New("xlog: no sinks registered")

	// ErrBuilderUsed Builder 已经 Build 过，不可复用
	ErrBuilderUsed = errors.New("xlog: builder already used")

	// ErrUnknownSinkType 配置文件中的 Sink 类型未知
	ErrUnknownSinkType = errors.New("xlog: unknown sink type")

	// ErrUnknownLevel 无法解析的级别字符串
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrNilFactory Custom 传入了 nil 工厂，或工厂返回了 nil Sink
	ErrNilFactory = errors.New("xlog: nil sink factory or sink")

	// ErrInvalidOption Builder 选项取值非法
	ErrInvalidOption = errors.New("xlog: invalid option")
)

// 安装期错误
var (
	// ErrAlreadyInstalled 进程内已安装过 Dispatcher
	ErrAlreadyInstalled = errors.New("xlog: dispatcher already installed")

	// ErrNilDispatcher Install 传入 nil
	ErrNilDispatcher = errors.New("xlog: nil dispatcher")
)

// 文件 Sink 构造错误，与 xrotate 为同一哨兵值，可直接 errors.Is 判断。
var (
	// ErrPermission 目标目录或文件不可写
	ErrPermission = xrotate.ErrPermission

	// ErrIO 文件打开或创建失败
	ErrIO = xrotate.ErrIO
)

// 运行期错误（经 OnError 上报，不向调用方返回）
var (
	// ErrSinkSuspended Sink 连续失败后被熔断，冷却期内的事件被丢弃
	ErrSinkSuspended = errors.New("xlog: sink suspended")
)
