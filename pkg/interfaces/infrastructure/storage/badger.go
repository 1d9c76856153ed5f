// Package storage 定义键值存储接口
//
// 💾 **键值存储 (Key-Value Store)**
//
// 收据存储只依赖本接口，实现位于 internal/core/infrastructure/storage/badger。
//
// 🔗 **组件关系**
// - KVStore：被 internal/core/receipts 使用
// - Badger 实现：磁盘模式与内存模式（测试）
package storage

import "context"

// KVStore 键值存储
//
// Get 在键不存在时返回 (nil, nil)；关闭过程中的写操作返回错误。
type KVStore interface {
	// Get 读取键值
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 写入键值
	Set(ctx context.Context, key, value []byte) error

	// SetIfAbsent 仅在键不存在时写入，返回是否写入
	SetIfAbsent(ctx context.Context, key, value []byte) (bool, error)

	// Delete 删除键，键不存在时不报错
	Delete(ctx context.Context, key []byte) error

	// Exists 判断键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixKeys 按字典序返回前缀下的键，limit<=0 表示不限
	PrefixKeys(ctx context.Context, prefix []byte, limit int) ([][]byte, error)

	// Close 关闭存储
	Close() error
}
