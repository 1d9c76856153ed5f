package main

import (
	"context"
	"fmt"

	"github.com/weisyn/zkreceipt/internal/core/host"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/verifier"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	configiface "github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
)

// pipeline 单次命令使用的证明组件（不启动 HTTP 与收据存储）
type pipeline struct {
	provider configiface.Provider
	logger   log.Logger
	setup    *zkproof.SetupStore
	registry *zkproof.Registry
	sandbox  *sandbox.Manager
}

func newPipeline(flags *GlobalFlags) (*pipeline, error) {
	provider, err := loadProvider(flags)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(flags, provider)
	if err != nil {
		return nil, err
	}
	setup := zkproof.NewSetupStore(provider.GetProver().SetupDir, logimpl.NewModuleLogger(logger, "zkproof"))
	return &pipeline{
		provider: provider,
		logger:   logger,
		setup:    setup,
		registry: zkproof.NewDefaultRegistry(setup, logimpl.NewModuleLogger(logger, "zkproof")),
	}, nil
}

// driver 创建沙箱管理器与宿主驱动
func (p *pipeline) driver(ctx context.Context) (*host.Driver, error) {
	manager, err := sandbox.NewManager(ctx, p.provider.GetSandbox(), logimpl.NewModuleLogger(p.logger, "sandbox"))
	if err != nil {
		return nil, fmt.Errorf("创建沙箱失败: %w", err)
	}
	p.sandbox = manager

	prover := p.provider.GetProver()
	return host.NewDriver(host.Options{
		Logger:      logimpl.NewModuleLogger(p.logger, "host"),
		Sandbox:     manager,
		Registry:    p.registry,
		Prover:      prover,
		MemoryGuard: metrics.NewMemoryGuard(prover.MinFreeMemoryMB),
	})
}

// verifier 创建收据验证器；allowDev 为 true 时覆盖配置接受 dev 收据
func (p *pipeline) verifier(allowDev bool) *verifier.Verifier {
	options := *p.provider.GetVerifier()
	if allowDev {
		options.AllowDev = true
	}
	return verifier.New(p.registry, &options, logimpl.NewModuleLogger(p.logger, "verifier"), nil)
}

func (p *pipeline) Close(ctx context.Context) {
	if p.sandbox != nil {
		_ = p.sandbox.Close(ctx)
	}
	_ = p.logger.Sync()
}
