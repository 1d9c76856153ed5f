// Package zkproof 提供收据封印的证明与验证
//
// 🎯 **模块职责**：
// - 收据声明电路（groth16/BN254，MiMC 承诺）
// - 可信设置的生成、持久化与加载
// - 证明后端注册表：cpu、gpu-cuda（icicle 构建）、gpu-metal（不可用）、dev
// - 封印编码与验证、Solidity 验证合约导出
package zkproof

import (
	"go.uber.org/fx"

	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
)

// ModuleInput 证明模块依赖
type ModuleInput struct {
	fx.In

	ConfigProvider config.Provider `optional:"false"`
	Logger         log.Logger      `optional:"true"`
}

// ModuleOutput 证明模块输出
type ModuleOutput struct {
	fx.Out

	SetupStore *SetupStore
	Registry   *Registry
}

// Module 返回证明模块
func Module() fx.Option {
	return fx.Module("zkproof",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建可信设置管理与后端注册表（可信设置延迟到首次证明时加载，验证只读已持久化的验证密钥）
func ProvideServices(input ModuleInput) ModuleOutput {
	logger := logimpl.NewModuleLogger(input.Logger, "zkproof")
	setup := NewSetupStore(input.ConfigProvider.GetProver().SetupDir, logger)
	return ModuleOutput{
		SetupStore: setup,
		Registry:   NewDefaultRegistry(setup, logger),
	}
}
