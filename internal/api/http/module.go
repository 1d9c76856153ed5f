package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	apiconfig "github.com/weisyn/zkreceipt/internal/config/api"
	"github.com/weisyn/zkreceipt/internal/core/host"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/receipts"
	"github.com/weisyn/zkreceipt/internal/core/verifier"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ModuleInput HTTP 模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle fx.Lifecycle
	Options   *apiconfig.APIOptions `optional:"false"`
	Logger    log.Logger            `optional:"true"`
	Pool      *host.Pool            `optional:"false"`
	Image     types.GuestImage      `optional:"false"`
	Verifier  *verifier.Verifier    `optional:"false"`
	Registry  *zkproof.Registry     `optional:"false"`
	Store     *receipts.Store       `optional:"true"`
	Metrics   *prometheus.Registry  `optional:"true"`
}

// Module 返回HTTP服务模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(ProvideServer),
	)
}

// ProvideServer 创建HTTP服务器；启用时随应用生命周期启动与关闭
func ProvideServer(input ModuleInput) (*Server, error) {
	logger := logimpl.NewModuleLogger(input.Logger, "api")
	server, err := NewServer(Deps{
		Options:  input.Options,
		Logger:   logger,
		Prover:   input.Pool,
		Pool:     input.Pool,
		Image:    input.Image,
		Verifier: input.Verifier,
		Registry: input.Registry,
		Store:    input.Store,
		Metrics:  input.Metrics,
	})
	if err != nil {
		return nil, err
	}

	if !input.Options.HTTPEnabled {
		logger.Info("HTTP API在配置中被禁用")
		return server, nil
	}
	input.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
	return server, nil
}
