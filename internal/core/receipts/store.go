// Package receipts 提供收据持久化：BadgerDB 落盘、snappy 压缩、bigcache 热缓存
//
// 📋 **键布局**：
//
//	r/<receipt-id hex>                 → 编码标记(1 字节) || 收据二进制
//	i/<image-id hex>/<receipt-id hex>  → 空值（按镜像索引）
//
// 收据 ID 为收据二进制编码的 SHA-256，重复写入同一收据是幂等的。
package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/allegro/bigcache/v3"
	"github.com/golang/snappy"

	badgerconfig "github.com/weisyn/zkreceipt/internal/config/storage/badger"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/zkreceipt/pkg/types"
)

const (
	receiptPrefix = "r/"
	imagePrefix   = "i/"

	codecRaw    byte = 0
	codecSnappy byte = 1
)

var (
	// ErrNotFound 收据不存在
	ErrNotFound = errors.New("receipt not found")

	// ErrCorrupted 存储内容无法解码
	ErrCorrupted = errors.New("stored receipt corrupted")
)

// Store 收据存储
type Store struct {
	db          storage.KVStore
	cache       *bigcache.BigCache
	compression bool
	logger      log.Logger
}

// New 基于已打开的键值存储（通常为 BadgerDB）创建收据存储
func New(db storage.KVStore, options *badgerconfig.BadgerOptions, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("receipt store requires a key-value store")
	}
	if logger == nil {
		logger = log.Nop()
	}
	if options == nil {
		options = &badgerconfig.BadgerOptions{}
	}

	s := &Store{db: db, compression: options.Compression, logger: logger}
	if options.CacheEnabled {
		cfg := bigcache.DefaultConfig(options.CacheTTL)
		cfg.HardMaxCacheSize = options.CacheSizeMB
		cfg.Verbose = false
		cache, err := bigcache.New(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("创建收据缓存失败: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

func receiptKey(id types.Digest) []byte {
	return []byte(receiptPrefix + id.Hex())
}

func imageKey(image types.ImageID, id types.Digest) []byte {
	return []byte(imagePrefix + image.Hex() + "/" + id.Hex())
}

// Put 持久化收据并返回其 ID
//
// 镜像索引每次都写入（幂等），上次写索引失败后重试即可补齐。
func (s *Store) Put(ctx context.Context, receipt *types.Receipt) (types.Digest, error) {
	if receipt == nil {
		return types.Digest{}, errors.New("nil receipt")
	}
	raw := receipt.MarshalBinary()
	id := types.DigestOf(raw)

	written, err := s.db.SetIfAbsent(ctx, receiptKey(id), s.encode(raw))
	if err != nil {
		return types.Digest{}, fmt.Errorf("保存收据失败: %w", err)
	}
	if err := s.db.Set(ctx, imageKey(receipt.ImageID(), id), nil); err != nil {
		return types.Digest{}, fmt.Errorf("保存收据索引失败: %w", err)
	}
	if written {
		s.logger.Debugf("收据已保存: id=%s, image=%s, backend=%s, bytes=%d",
			id.Hex(), receipt.ImageID().Hex(), receipt.BackendID(), len(raw))
	}
	s.cachePut(id, raw)
	return id, nil
}

// Get 按 ID 读取收据
func (s *Store) Get(ctx context.Context, id types.Digest) (*types.Receipt, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(id.Hex()); err == nil {
			return types.DecodeReceipt(raw)
		}
	}

	stored, err := s.db.Get(ctx, receiptKey(id))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	raw, err := s.decode(stored)
	if err != nil {
		return nil, err
	}
	receipt, err := types.DecodeReceipt(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if receipt.ID() != id {
		return nil, fmt.Errorf("%w: id mismatch for %s", ErrCorrupted, id.Hex())
	}
	s.cachePut(id, raw)
	return receipt, nil
}

// Has 收据是否存在
func (s *Store) Has(ctx context.Context, id types.Digest) (bool, error) {
	return s.db.Exists(ctx, receiptKey(id))
}

// Delete 删除收据及其索引
func (s *Store) Delete(ctx context.Context, id types.Digest) error {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(id.Hex())
	}
	if err := s.db.Delete(ctx, imageKey(receipt.ImageID(), id)); err != nil {
		return err
	}
	return s.db.Delete(ctx, receiptKey(id))
}

// List 按 ID 顺序列出收据，limit<=0 表示全部
func (s *Store) List(ctx context.Context, limit int) ([]types.Digest, error) {
	keys, err := s.db.PrefixKeys(ctx, []byte(receiptPrefix), limit)
	if err != nil {
		return nil, err
	}
	return parseIDs(keys, receiptPrefix)
}

// ListByImage 列出某一镜像的收据
func (s *Store) ListByImage(ctx context.Context, image types.ImageID, limit int) ([]types.Digest, error) {
	prefix := imagePrefix + image.Hex() + "/"
	keys, err := s.db.PrefixKeys(ctx, []byte(prefix), limit)
	if err != nil {
		return nil, err
	}
	return parseIDs(keys, prefix)
}

// Close 释放缓存；底层 BadgerDB 由其所有者关闭
func (s *Store) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

func parseIDs(keys [][]byte, prefix string) ([]types.Digest, error) {
	ids := make([]types.Digest, 0, len(keys))
	for _, k := range keys {
		id, err := types.ParseDigest(strings.TrimPrefix(string(k), prefix))
		if err != nil {
			return nil, fmt.Errorf("%w: key %q", ErrCorrupted, k)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) encode(raw []byte) []byte {
	if !s.compression {
		return append([]byte{codecRaw}, raw...)
	}
	return append([]byte{codecSnappy}, snappy.Encode(nil, raw)...)
}

func (s *Store) decode(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrCorrupted)
	}
	switch stored[0] {
	case codecRaw:
		return stored[1:], nil
	case codecSnappy:
		raw, err := snappy.Decode(nil, stored[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: codec %d", ErrCorrupted, stored[0])
	}
}

func (s *Store) cachePut(id types.Digest, raw []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(id.Hex(), raw); err != nil {
		s.logger.Debugf("收据缓存写入失败: %v", err)
	}
}
