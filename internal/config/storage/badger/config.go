// Package badger 提供收据存储（BadgerDB + bigcache）配置
package badger

import (
	"path/filepath"
	"time"

	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// BadgerOptions 收据存储配置选项
type BadgerOptions struct {
	Path         string        `json:"path"`          // 数据库目录
	InMemory     bool          `json:"in_memory"`     // 内存模式（测试）
	SyncWrites   bool          `json:"sync_writes"`   // 同步写入
	Compression  bool          `json:"compression"`   // snappy 压缩
	CacheEnabled bool          `json:"cache_enabled"` // 热缓存
	CacheSizeMB  int           `json:"cache_size_mb"` // 缓存容量
	CacheTTL     time.Duration `json:"cache_ttl"`     // 缓存条目存活时间
}

// Config 收据存储配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建收据存储配置
//
// 路径规则：配置了 storage.data_root 时使用 {data_root}/receipts/，否则 ./data/receipts/。
func New(userConfig interface{}) *Config {
	options := &BadgerOptions{
		Path:         filepath.Join(defaultDataRoot, defaultSubDir),
		SyncWrites:   defaultSyncWrites,
		Compression:  defaultCompression,
		CacheEnabled: defaultCacheEnabled,
		CacheSizeMB:  defaultCacheSizeMB,
		CacheTTL:     defaultCacheTTL,
	}
	if user, ok := userConfig.(*configtypes.UserStorageConfig); ok && user != nil {
		if user.DataRoot != nil && *user.DataRoot != "" {
			options.Path = filepath.Join(*user.DataRoot, defaultSubDir)
		}
		if user.InMemory != nil {
			options.InMemory = *user.InMemory
		}
		if user.Compression != nil {
			options.Compression = *user.Compression
		}
		if user.CacheEnabled != nil {
			options.CacheEnabled = *user.CacheEnabled
		}
		if user.CacheSizeMB != nil && *user.CacheSizeMB > 0 {
			options.CacheSizeMB = *user.CacheSizeMB
		}
		if user.CacheTTLSec != nil && *user.CacheTTLSec > 0 {
			options.CacheTTL = time.Duration(*user.CacheTTLSec) * time.Second
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从选项创建配置
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整的收据存储配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}
