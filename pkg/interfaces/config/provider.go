// Package config provides configuration provider interfaces.
package config

import (
	apiconfig "github.com/weisyn/zkreceipt/internal/config/api"
	logconfig "github.com/weisyn/zkreceipt/internal/config/log"
	onchainconfig "github.com/weisyn/zkreceipt/internal/config/onchain"
	proverconfig "github.com/weisyn/zkreceipt/internal/config/prover"
	sandboxconfig "github.com/weisyn/zkreceipt/internal/config/sandbox"
	badgerconfig "github.com/weisyn/zkreceipt/internal/config/storage/badger"
	verifierconfig "github.com/weisyn/zkreceipt/internal/config/verifier"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Provider 配置提供者接口
//
// 每个 Get 方法返回已应用默认值与用户覆盖的完整选项。
type Provider interface {
	// GetAppConfig 原始用户配置
	GetAppConfig() *types.AppConfig

	// GetEnvironment 运行环境：dev | test | prod，未配置或无效时为 prod
	GetEnvironment() string

	// GetDataDir 数据目录
	GetDataDir() string

	GetLog() *logconfig.LogOptions
	GetProver() *proverconfig.ProverOptions
	GetSandbox() *sandboxconfig.SandboxOptions
	GetStorage() *badgerconfig.BadgerOptions
	GetAPI() *apiconfig.APIOptions
	GetVerifier() *verifierconfig.VerifierOptions
	GetOnChain() *onchainconfig.OnChainOptions
}
