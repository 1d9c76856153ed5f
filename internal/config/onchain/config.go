// Package onchain 提供链上验证配置
package onchain

import (
	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// OnChainOptions 链上验证配置选项
type OnChainOptions struct {
	RPCURL          string `json:"rpc_url"`          // 以太坊 JSON-RPC 端点，为空时不连接
	VerifierAddress string `json:"verifier_address"` // 验证合约地址
}

// Config 链上验证配置实现
type Config struct {
	options *OnChainOptions
}

// New 创建链上验证配置
func New(userConfig interface{}) *Config {
	options := &OnChainOptions{}
	if user, ok := userConfig.(*configtypes.UserOnChainConfig); ok && user != nil {
		if user.RPCURL != nil {
			options.RPCURL = *user.RPCURL
		}
		if user.VerifierAddress != nil {
			options.VerifierAddress = *user.VerifierAddress
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的链上验证配置选项
func (c *Config) GetOptions() *OnChainOptions {
	return c.options
}

// Enabled 是否配置了 RPC 端点与合约地址
func (o *OnChainOptions) Enabled() bool {
	return o.RPCURL != "" && o.VerifierAddress != ""
}
