package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

// 支持的格式
const (
	// FormatYAML .yaml / .yml
	FormatYAML Format = "yaml"
	// FormatJSON .json
	FormatJSON Format = "json"
)

// Config 只读配置快照的持有者。
//
// 读方法总是作用于最近一次成功加载的快照；Reload 失败时旧快照保持不变。
// 所有方法并发安全。
type Config interface {
	// Client 返回当前快照的 koanf 实例，用于 String/Int/Strings 等直接读取。
	// 返回值在 Reload 后仍可用，但指向旧快照。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置解码到 target，path 为空时解码整个配置。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件；从字节创建的 Config 返回 [ErrNotReloadable]。
	Reload() error

	// Path 返回配置文件路径，从字节创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}
