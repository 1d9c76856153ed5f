package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/weisyn/zkreceipt/internal/api"
	config "github.com/weisyn/zkreceipt/internal/config"
	"github.com/weisyn/zkreceipt/internal/core/host"
	log "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/receipts"
	"github.com/weisyn/zkreceipt/internal/core/verifier"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	configiface "github.com/weisyn/zkreceipt/pkg/interfaces/config"
	logiface "github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
)

// Framework layers
const (
	// 基础设施层
	LayerInfrastructure = "infrastructure"
	// 证明流水线层
	LayerPipeline = "pipeline"
	// 应用层
	LayerApplication = "application"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configiface.AppOptions { return b.opts }),
		config.Module(),  // 1. 配置(不依赖其他)
		log.Module(),     // 2. 日志(依赖配置)
		metrics.Module(), // 3. 指标与内存探针(依赖配置)
	}
}

// SetupPipelineLayer 设置证明流水线层模块
//
// 加载顺序：证明后端 → 收据存储 → 宿主驱动（依赖后端注册表与收据钩子）→ 验证器
func (b *Bootstrap) SetupPipelineLayer() []fx.Option {
	return []fx.Option{
		zkproof.Module(),
		receipts.Module(),
		host.Module(),
		verifier.Module(),
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	if !b.opts.enableAPI {
		return nil
	}
	return []fx.Option{api.Module()}
}

// SetupModules 设置所有应用模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var allModules []fx.Option
	allModules = append(allModules, b.SetupInfrastructureLayer()...)
	allModules = append(allModules, b.SetupPipelineLayer()...)
	allModules = append(allModules, b.SetupApplicationLayer()...)
	return allModules
}

// CreateFxApp 创建并配置fx应用
func (b *Bootstrap) CreateFxApp() error {
	appOptions := []fx.Option{
		fx.Options(b.SetupModules()...),

		// 禁用fx内部日志
		fx.NopLogger,

		fx.Invoke(func(lifecycle fx.Lifecycle, provider configiface.Provider, logger logiface.Logger) {
			appLogger := log.NewModuleLogger(logger, "app")
			lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					appLogger.Infof("应用启动: environment=%s, backend=%s, sandbox=%s",
						provider.GetEnvironment(), provider.GetProver().Backend, provider.GetSandbox().Kind)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					appLogger.Info("应用停止")
					return nil
				},
			})
		}),
	}
	if len(b.opts.populate) > 0 {
		appOptions = append(appOptions, fx.Populate(b.opts.populate...))
	}

	b.fxApp = fx.New(appOptions...)
	if err := b.fxApp.Err(); err != nil {
		return fmt.Errorf("装配依赖失败: %w", err)
	}
	return nil
}

// StartApp 启动所有生命周期钩子
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if b.fxApp == nil {
		return fmt.Errorf("fx应用未初始化")
	}
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 按相反顺序执行停止钩子
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if b.fxApp == nil {
		return nil
	}
	return b.fxApp.Stop(ctx)
}
