package verifier

import (
	"go.uber.org/fx"

	verifierconfig "github.com/weisyn/zkreceipt/internal/config/verifier"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
)

// ModuleInput 验证模块依赖
type ModuleInput struct {
	fx.In

	Registry *zkproof.Registry               `optional:"false"`
	Options  *verifierconfig.VerifierOptions `optional:"false"`
	Logger   log.Logger                      `optional:"true"`
	Pipeline *metrics.Pipeline               `optional:"true"`
}

// Module 返回验证模块
func Module() fx.Option {
	return fx.Module("verifier",
		fx.Provide(func(input ModuleInput) *Verifier {
			return New(input.Registry, input.Options, logimpl.NewModuleLogger(input.Logger, "verifier"), input.Pipeline)
		}),
	)
}
