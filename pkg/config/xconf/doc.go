// Package xconf 加载 YAML/JSON 配置文件，基于 koanf。
//
// xtail 用它读取分发器的配置文件（见 xlog.FromConfig）以及命令行工具的清理配置。
// 只负责加载、解码与重载，不做字段校验与默认值注入：这些由使用方
// （如 xlog.FileConfig.Builder）完成。
//
// # 快照语义
//
// Config 持有一份不可变的 koanf 快照。Reload 成功时原子替换快照，
// 失败时旧快照继续生效；Client() 返回的实例在 Reload 后仍可用，但数据是旧的，
// 因此不要长期缓存它。
//
// # 监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录，防抖后调用 Reload，
// 阻塞直到 ctx 取消，可直接作为 xrun.Group 的服务运行。
// 从字节创建的 Config 不能监视。
//
// 注意：监视只刷新配置快照。已构建的 xlog.Dispatcher 不会随之改变 Sink 集合，
// 使用方只应在每次使用时重新读取的设置（如保留天数）上依赖重载。
package xconf
