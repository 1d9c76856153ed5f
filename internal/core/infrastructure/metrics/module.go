// Package metrics 提供证明流水线的 Prometheus 指标与内存守卫
//
// 📋 **指标基础设施模块**
//
// 本模块提供：
// - Pipeline: 证明/验证计数、耗时直方图、后端错误、进行中证明数
// - MemoryGuard: 证明前的主机可用内存检查
// - *prometheus.Registry: 供 HTTP /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
)

// ModuleInput 指标模块依赖
type ModuleInput struct {
	fx.In

	Config config.Provider `optional:"false"`
}

// ModuleOutput 指标模块输出
type ModuleOutput struct {
	fx.Out

	Registry    *prometheus.Registry
	Pipeline    *Pipeline
	MemoryGuard *MemoryGuard
}

// Module 返回 metrics 模块的 fx.Option
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建独立注册表（含 Go 运行时与进程采集器）并注册流水线指标
func ProvideServices(input ModuleInput) ModuleOutput {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return ModuleOutput{
		Registry:    reg,
		Pipeline:    NewPipeline(reg),
		MemoryGuard: NewMemoryGuard(input.Config.GetProver().MinFreeMemoryMB),
	}
}
