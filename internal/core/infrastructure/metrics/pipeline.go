package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
//                          Prometheus 监控指标
// ============================================================================

const namespace = "zkreceipt"

// Pipeline 证明流水线指标
type Pipeline struct {
	proveTotal     *prometheus.CounterVec
	proveDuration  *prometheus.HistogramVec
	backendErrors  *prometheus.CounterVec
	verifyTotal    *prometheus.CounterVec
	verifyDuration prometheus.Histogram
	inflight       prometheus.Gauge
	freeMemory     prometheus.Gauge
}

// NewPipeline 在 reg 上注册流水线指标；reg 为 nil 时使用独立注册表（测试）
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Pipeline{
		proveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "prove_total",
			Help:      "Total number of prove calls by backend and result",
		}, []string{"backend", "result"}), // result: ok, malformed_witness, execution, backend, other

		proveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "prove_duration_seconds",
			Help:      "Duration of prove phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms ~ 41s
		}, []string{"phase"}), // phase: execute, prove, total

		backendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "backend_errors_total",
			Help:      "Total number of backend errors by backend",
		}, []string{"backend"}),

		verifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "verify_total",
			Help:      "Total number of receipt verifications by result",
		}, []string{"result"}), // result: valid, invalid, error

		verifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "verify_duration_seconds",
			Help:      "Duration of receipt verification in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),

		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "inflight_proofs",
			Help:      "Number of proofs currently running",
		}),

		freeMemory: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "free_memory_bytes",
			Help:      "Host free memory observed before the last prove",
		}),
	}
}

// ObserveProve 记录一次证明结果
func (p *Pipeline) ObserveProve(backend, result string, total time.Duration) {
	if p == nil {
		return
	}
	p.proveTotal.WithLabelValues(backend, result).Inc()
	p.proveDuration.WithLabelValues("total").Observe(total.Seconds())
}

// ObservePhase 记录阶段耗时（execute | prove）
func (p *Pipeline) ObservePhase(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.proveDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// BackendError 记录后端错误
func (p *Pipeline) BackendError(backend string) {
	if p == nil {
		return
	}
	p.backendErrors.WithLabelValues(backend).Inc()
}

// ObserveVerify 记录一次验证结果（valid | invalid | error）
func (p *Pipeline) ObserveVerify(result string, d time.Duration) {
	if p == nil {
		return
	}
	p.verifyTotal.WithLabelValues(result).Inc()
	p.verifyDuration.Observe(d.Seconds())
}

// Inflight 调整进行中的证明数
func (p *Pipeline) Inflight(delta float64) {
	if p == nil {
		return
	}
	p.inflight.Add(delta)
}

// FreeMemory 记录证明前的可用内存
func (p *Pipeline) FreeMemory(bytes uint64) {
	if p == nil {
		return
	}
	p.freeMemory.Set(float64(bytes))
}
