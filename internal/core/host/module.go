// Package host 提供宿主驱动：运行访客、生成封印、组装收据
//
// 🎯 **模块职责**：
// - Driver：单次证明的完整流程（沙箱执行 → 日志 → 证明后端 → 收据）
// - Pool：有界并发的证明工作池
// - 沙箱管理器与访客镜像的生命周期
package host

import (
	"context"

	"go.uber.org/fx"

	sandboxconfig "github.com/weisyn/zkreceipt/internal/config/sandbox"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ModuleInput 宿主模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle      fx.Lifecycle
	ConfigProvider config.Provider               `optional:"false"`
	SandboxOptions *sandboxconfig.SandboxOptions `optional:"false"`
	Registry       *zkproof.Registry             `optional:"false"`
	Logger         log.Logger                    `optional:"true"`
	Pipeline       *metrics.Pipeline             `optional:"true"`
	MemoryGuard    *metrics.MemoryGuard          `optional:"true"`
	Sink           zkvm.ReceiptSink              `optional:"true"`
}

// ModuleOutput 宿主模块输出
type ModuleOutput struct {
	fx.Out

	Sandbox *sandbox.Manager
	Image   types.GuestImage
	Driver  *Driver
	Pool    *Pool
}

// Module 返回宿主模块
func Module() fx.Option {
	return fx.Module("host",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建沙箱管理器、解析访客镜像并组装驱动与工作池
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	ctx := context.Background()
	manager, err := sandbox.NewManager(ctx, input.SandboxOptions, logimpl.NewModuleLogger(input.Logger, "sandbox"))
	if err != nil {
		return ModuleOutput{}, err
	}
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return manager.Close(ctx)
		},
	})

	image, err := sandbox.ResolveImage(input.SandboxOptions)
	if err != nil {
		return ModuleOutput{}, err
	}

	proverOptions := input.ConfigProvider.GetProver()
	driver, err := NewDriver(Options{
		Logger:      logimpl.NewModuleLogger(input.Logger, "host"),
		Sandbox:     manager,
		Registry:    input.Registry,
		Prover:      proverOptions,
		MemoryGuard: input.MemoryGuard,
		Metrics:     input.Pipeline,
		Sink:        input.Sink,
	})
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		Sandbox: manager,
		Image:   image,
		Driver:  driver,
		Pool:    NewPool(driver, proverOptions.MaxConcurrentProofs),
	}, nil
}
