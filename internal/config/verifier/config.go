// Package verifier 提供收据验证器配置
package verifier

import (
	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// VerifierOptions 验证器配置选项
type VerifierOptions struct {
	// AllowDev 接受 dev 后端伪收据，默认仅 dev 环境开启
	AllowDev bool `json:"allow_dev"`
}

// Config 验证器配置实现
type Config struct {
	options *VerifierOptions
}

// New 创建验证器配置；environment 为 dev 时默认接受 dev 收据
func New(userConfig interface{}, environment string) *Config {
	options := &VerifierOptions{AllowDev: environment == "dev"}
	if user, ok := userConfig.(*configtypes.UserVerifierConfig); ok && user != nil && user.AllowDev != nil {
		options.AllowDev = *user.AllowDev
	}
	return &Config{options: options}
}

// GetOptions 获取完整的验证器配置选项
func (c *Config) GetOptions() *VerifierOptions {
	return c.options
}
