package redis

import (
	"fmt"
	"strings"
)

// 全局前缀，用于区分不同环境或应用
const (
	GlobalPrefix = "fleet"
)

// 模块前缀
const (
	MaintenanceModule = "maintenance"
	AssetModule       = "asset"
)

// 维护相关键模板
const (
	// 工作包完成锁键模板
	CompletionLockKeyTpl = "%s:%s:%s:set:%d:complete:lock" // {global}:{module}:{version}:set:{set_id}:complete:lock

	// 资产能力状态缓存键模板
	AssetCapabilityKeyTpl = "%s:%s:%s:id:%d:capability" // {global}:{module}:{version}:id:{asset_id}:capability
)

// KeyBuilder 提供构建Redis键的方法
type KeyBuilder struct {
	globalPrefix string
	version      string
}

// NewKeyBuilder 创建一个新的KeyBuilder实例
func NewKeyBuilder(globalPrefix string, version string) *KeyBuilder {
	if globalPrefix == "" {
		globalPrefix = GlobalPrefix
	}
	if version == "" {
		version = "v1" // 默认版本
	}
	return &KeyBuilder{globalPrefix: globalPrefix, version: version}
}

// CompletionLockKey 构建工作包完成锁键
func (kb *KeyBuilder) CompletionLockKey(setID int64) string {
	return fmt.Sprintf(CompletionLockKeyTpl, kb.globalPrefix, MaintenanceModule, kb.version, setID)
}

// AssetCapabilityKey 构建资产能力状态缓存键
func (kb *KeyBuilder) AssetCapabilityKey(assetID int64) string {
	return fmt.Sprintf(AssetCapabilityKeyTpl, kb.globalPrefix, AssetModule, kb.version, assetID)
}

// GetModuleFromKey 从键中提取模块名
func (kb *KeyBuilder) GetModuleFromKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

// GetKeyPattern 获取特定模块的通用键模式
func (kb *KeyBuilder) GetKeyPattern(module string) string {
	return fmt.Sprintf("%s:%s:%s:*", kb.globalPrefix, module, kb.version)
}
