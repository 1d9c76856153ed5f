// Package config 提供应用配置管理功能
package config

import (
	"github.com/weisyn/zkreceipt/internal/config/api"
	"github.com/weisyn/zkreceipt/internal/config/onchain"
	"github.com/weisyn/zkreceipt/internal/config/prover"
	"github.com/weisyn/zkreceipt/internal/config/sandbox"
	"github.com/weisyn/zkreceipt/internal/config/storage/badger"
	"github.com/weisyn/zkreceipt/internal/config/verifier"
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams 配置模块依赖
type ConfigParams struct {
	fx.In

	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 配置模块输出
type ConfigOutput struct {
	fx.Out

	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			// 提供具体的配置类型用于依赖注入
			func(provider config.Provider) *prover.ProverOptions {
				return provider.GetProver()
			},
			func(provider config.Provider) *sandbox.SandboxOptions {
				return provider.GetSandbox()
			},
			func(provider config.Provider) *badger.BadgerOptions {
				return provider.GetStorage()
			},
			func(provider config.Provider) *api.APIOptions {
				return provider.GetAPI()
			},
			func(provider config.Provider) *verifier.VerifierOptions {
				return provider.GetVerifier()
			},
			func(provider config.Provider) *onchain.OnChainOptions {
				return provider.GetOnChain()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	provider := NewProvider(appConfig)
	if err := ValidateProvider(provider); err != nil {
		return ConfigOutput{}, err
	}
	return ConfigOutput{Provider: provider}, nil
}
