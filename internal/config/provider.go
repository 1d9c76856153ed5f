package config

import (
	"path/filepath"
	"strings"

	"github.com/weisyn/zkreceipt/internal/config/api"
	"github.com/weisyn/zkreceipt/internal/config/log"
	"github.com/weisyn/zkreceipt/internal/config/onchain"
	"github.com/weisyn/zkreceipt/internal/config/prover"
	"github.com/weisyn/zkreceipt/internal/config/sandbox"
	"github.com/weisyn/zkreceipt/internal/config/storage/badger"
	"github.com/weisyn/zkreceipt/internal/config/verifier"
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/types"
)

const (
	envDev  = "dev"
	envTest = "test"
	envProd = "prod"

	defaultDataDir = "./data"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{appConfig: appConfig}
}

// GetAppConfig 原始用户配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// GetEnvironment 运行环境，未配置或无效时为 prod（安全优先：不接受 dev 收据）
func (p *Provider) GetEnvironment() string {
	if p.appConfig.Environment == nil {
		return envProd
	}
	switch env := strings.ToLower(strings.TrimSpace(*p.appConfig.Environment)); env {
	case envDev, envTest, envProd:
		return env
	}
	return envProd
}

// GetDataDir 数据目录
func (p *Provider) GetDataDir() string {
	if p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		return *p.appConfig.DataDir
	}
	return defaultDataDir
}

// GetLog 获取日志配置；dev 环境默认 debug 级别
func (p *Provider) GetLog() *log.LogOptions {
	options := log.New(p.appConfig.Log).GetOptions()
	if p.GetEnvironment() == envDev && (p.appConfig.Log == nil || p.appConfig.Log.Level == nil) {
		options.Level = "debug"
	}
	return options
}

// GetProver 获取证明配置；未配置 setup_dir 时使用 {data_dir}/setup，使证明与验证进程共享同一验证密钥
func (p *Provider) GetProver() *prover.ProverOptions {
	options := prover.New(p.appConfig.Prover).GetOptions()
	if p.appConfig.Prover == nil || p.appConfig.Prover.SetupDir == nil {
		options.SetupDir = filepath.Join(p.GetDataDir(), "setup")
	}
	return options
}

// GetSandbox 获取沙箱配置
func (p *Provider) GetSandbox() *sandbox.SandboxOptions {
	return sandbox.New(p.appConfig.Sandbox).GetOptions()
}

// GetStorage 获取收据存储配置；未配置 data_root 时使用 {data_dir}/receipts
func (p *Provider) GetStorage() *badger.BadgerOptions {
	options := badger.New(p.appConfig.Storage).GetOptions()
	if p.appConfig.Storage == nil || p.appConfig.Storage.DataRoot == nil {
		options.Path = filepath.Join(p.GetDataDir(), "receipts")
	}
	return options
}

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions {
	return api.New(p.appConfig.API).GetOptions()
}

// GetVerifier 获取验证器配置
func (p *Provider) GetVerifier() *verifier.VerifierOptions {
	return verifier.New(p.appConfig.Verifier, p.GetEnvironment()).GetOptions()
}

// GetOnChain 获取链上验证配置
func (p *Provider) GetOnChain() *onchain.OnChainOptions {
	return onchain.New(p.appConfig.OnChain).GetOptions()
}
