// Package prover 提供证明后端与宿主驱动配置
package prover

import (
	"fmt"
	"time"

	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// 后端名
const (
	BackendCPU      = "cpu"
	BackendGPUCUDA  = "gpu-cuda"
	BackendGPUMetal = "gpu-metal"
	BackendDev      = "dev"
)

// ProverOptions 证明配置选项
type ProverOptions struct {
	Backend             string        `json:"backend"`               // 首选后端
	Fallback            []string      `json:"fallback"`              // 资源类错误时依次尝试
	MaxConcurrentProofs int           `json:"max_concurrent_proofs"` // 工作池并发上限
	MinFreeMemoryMB     uint64        `json:"min_free_memory_mb"`    // 可用内存下限
	MaxWitnessBytes     int           `json:"max_witness_bytes"`     // 见证帧上限
	ProveTimeout        time.Duration `json:"prove_timeout"`         // 单次证明超时
	SetupDir            string        `json:"setup_dir"`             // 可信设置目录
}

// Config 证明配置实现
type Config struct {
	options *ProverOptions
}

// New 创建证明配置：先应用默认值，再用用户配置覆盖
func New(userConfig interface{}) *Config {
	options := &ProverOptions{
		Backend:             defaultBackend,
		MaxConcurrentProofs: defaultMaxConcurrentProofs,
		MinFreeMemoryMB:     defaultMinFreeMemoryMB,
		MaxWitnessBytes:     defaultMaxWitnessBytes,
		ProveTimeout:        defaultProveTimeout,
		SetupDir:            defaultSetupDir,
	}
	if user, ok := userConfig.(*configtypes.UserProverConfig); ok && user != nil {
		if user.Backend != nil {
			options.Backend = *user.Backend
		}
		if len(user.Fallback) > 0 {
			options.Fallback = append([]string{}, user.Fallback...)
		}
		if user.MaxConcurrentProofs != nil && *user.MaxConcurrentProofs > 0 {
			options.MaxConcurrentProofs = *user.MaxConcurrentProofs
		}
		if user.MinFreeMemoryMB != nil {
			options.MinFreeMemoryMB = *user.MinFreeMemoryMB
		}
		if user.MaxWitnessBytes != nil && *user.MaxWitnessBytes > 0 {
			options.MaxWitnessBytes = *user.MaxWitnessBytes
		}
		if user.ProveTimeoutSec != nil {
			options.ProveTimeout = time.Duration(*user.ProveTimeoutSec) * time.Second
		}
		if user.SetupDir != nil {
			options.SetupDir = *user.SetupDir
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的证明配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}

// Validate 校验后端名
func (o *ProverOptions) Validate() error {
	for _, name := range append([]string{o.Backend}, o.Fallback...) {
		if !IsKnownBackend(name) {
			return fmt.Errorf("unknown prover backend %q", name)
		}
	}
	return nil
}

// BackendChain 首选后端加回退列表（去重）
func (o *ProverOptions) BackendChain() []string {
	seen := make(map[string]bool)
	var chain []string
	for _, name := range append([]string{o.Backend}, o.Fallback...) {
		if !seen[name] {
			seen[name] = true
			chain = append(chain, name)
		}
	}
	return chain
}

// IsKnownBackend 是否为识别的后端名
func IsKnownBackend(name string) bool {
	switch name {
	case BackendCPU, BackendGPUCUDA, BackendGPUMetal, BackendDev:
		return true
	}
	return false
}
