package badger

import "time"

// 收据存储默认配置值
const (
	// defaultSubDir 收据库在 data_root 下的子目录
	defaultSubDir = "receipts"

	// defaultDataRoot 默认数据根目录
	defaultDataRoot = "./data"

	// defaultSyncWrites 收据写入后立即落盘
	defaultSyncWrites = true

	// defaultCompression 收据 snappy 压缩（封印与日志压缩率有限，主要压缩 JSON 元数据与大封印）
	defaultCompression = true

	// defaultCacheEnabled 启用热收据缓存
	defaultCacheEnabled = true

	// defaultCacheSizeMB 缓存容量上限
	defaultCacheSizeMB = 64

	// defaultCacheTTL 缓存条目存活时间
	defaultCacheTTL = 10 * time.Minute
)
