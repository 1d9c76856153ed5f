// Package sandbox 提供访客沙箱配置
package sandbox

import (
	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// SandboxOptions 沙箱配置选项
type SandboxOptions struct {
	Kind           string `json:"kind"`             // wasm | native
	ImagePath      string `json:"image_path"`       // wasm 访客镜像路径
	MaxMemoryPages uint32 `json:"max_memory_pages"` // 线性内存页数上限（每页 64 KiB）
	UseCompiler    bool   `json:"use_compiler"`     // 编译器模式，否则解释器
}

// Config 沙箱配置实现
type Config struct {
	options *SandboxOptions
}

// New 创建沙箱配置：先应用默认值，再用用户配置覆盖
func New(userConfig interface{}) *Config {
	options := &SandboxOptions{
		Kind:           defaultKind,
		MaxMemoryPages: defaultMaxMemoryPages,
		UseCompiler:    defaultUseCompiler,
	}
	if user, ok := userConfig.(*configtypes.UserSandboxConfig); ok && user != nil {
		if user.ImagePath != nil && *user.ImagePath != "" {
			options.ImagePath = *user.ImagePath
			options.Kind = string(configtypes.ImageKindWasm)
		}
		if user.Kind != nil {
			options.Kind = *user.Kind
		}
		if user.MaxMemoryPages != nil && *user.MaxMemoryPages > 0 {
			options.MaxMemoryPages = *user.MaxMemoryPages
		}
		if user.UseCompiler != nil {
			options.UseCompiler = *user.UseCompiler
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的沙箱配置选项
func (c *Config) GetOptions() *SandboxOptions {
	return c.options
}
