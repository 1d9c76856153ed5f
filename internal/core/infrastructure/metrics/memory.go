package metrics

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/pbnjay/memory"
)

// ErrInsufficientMemory 主机可用内存低于配置下限
var ErrInsufficientMemory = errors.New("insufficient free memory")

// MemorySample 内存采样
type MemorySample struct {
	TotalBytes uint64 `json:"total_bytes"` // 主机物理内存
	FreeBytes  uint64 `json:"free_bytes"`  // 主机可用内存，平台不支持时为 0
	HeapAlloc  uint64 `json:"heap_alloc"`  // 本进程堆分配
}

// MemoryGuard 证明前的内存检查
//
// Groth16 证明的内存峰值与约束数成正比，可用内存不足时提前拒绝，
// 返回可重试的后端错误，而不是让进程被 OOM 杀掉。
type MemoryGuard struct {
	minFreeBytes uint64
	free         func() uint64
	total        func() uint64
}

// NewMemoryGuard 创建内存守卫，minFreeMB 为 0 时不检查
func NewMemoryGuard(minFreeMB uint64) *MemoryGuard {
	return &MemoryGuard{
		minFreeBytes: minFreeMB << 20,
		free:         memory.FreeMemory,
		total:        memory.TotalMemory,
	}
}

// Sample 采样当前内存状态
func (p *MemoryGuard) Sample() MemorySample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemorySample{
		TotalBytes: p.total(),
		FreeBytes:  p.free(),
		HeapAlloc:  ms.HeapAlloc,
	}
}

// Check 可用内存低于下限时返回 ErrInsufficientMemory
//
// 平台无法报告可用内存（返回 0）时放行。
func (p *MemoryGuard) Check() error {
	if p == nil || p.minFreeBytes == 0 {
		return nil
	}
	free := p.free()
	if free == 0 {
		return nil
	}
	if free < p.minFreeBytes {
		return fmt.Errorf("%w: free=%dMB, required=%dMB", ErrInsufficientMemory, free>>20, p.minFreeBytes>>20)
	}
	return nil
}
