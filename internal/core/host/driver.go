package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	proverconfig "github.com/weisyn/zkreceipt/internal/config/prover"
	"github.com/weisyn/zkreceipt/internal/core/guest"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// traceDomainTag 执行摘要域分隔
const traceDomainTag = "zkreceipt.trace.v1"

// Stats 单次证明统计
type Stats struct {
	JobID           string        `json:"job_id"`
	Backend         string        `json:"backend"`          // 实际产生封印的后端
	Attempts        []string      `json:"attempts"`         // 依次尝试过的后端
	ExecuteDuration time.Duration `json:"execute_duration"` // 访客执行
	ProveDuration   time.Duration `json:"prove_duration"`   // 封印生成（含回退）
	TotalDuration   time.Duration `json:"total_duration"`
	JournalBytes    int           `json:"journal_bytes"`
	SealBytes       int           `json:"seal_bytes"`
	StoredID        *types.Digest `json:"stored_id,omitempty"` // 收据持久化后的标识
}

// ProveInfo 证明结果
//
// Output 为访客的私有输出（加密/解密结果），不属于收据，调用方负责保管。
type ProveInfo struct {
	Receipt *types.Receipt
	Output  []byte
	Stats   Stats
}

// Options 宿主驱动依赖
type Options struct {
	Logger      log.Logger
	Sandbox     zkvm.SandboxFactory
	Registry    *zkproof.Registry
	Prover      *proverconfig.ProverOptions
	MemoryGuard *metrics.MemoryGuard // 可选
	Metrics     *metrics.Pipeline    // 可选
	Sink        zkvm.ReceiptSink     // 可选
}

// Driver 宿主驱动
//
// 🎯 **核心职责**：在全新的沙箱实例中运行访客，读取日志，调用证明后端生成封印，组装收据
//
// 📋 **错误分类**：
// - 见证无法成帧、超限或访客退出码 2 → MalformedWitness
// - 访客非零退出、陷阱、提交帧缺失或日志格式错误 → ExecutionError
// - 内存不足、证明失败、加速器不可用 → BackendError（可重试，按配置回退）
//
// 收据要么完整返回，要么不返回；Driver 本身不持久化任何中间状态。
type Driver struct {
	logger   log.Logger
	sandbox  zkvm.SandboxFactory
	registry *zkproof.Registry
	options  *proverconfig.ProverOptions
	guard    *metrics.MemoryGuard
	metrics  *metrics.Pipeline
	sink     zkvm.ReceiptSink
}

// NewDriver 创建宿主驱动
func NewDriver(opts Options) (*Driver, error) {
	if opts.Sandbox == nil || opts.Registry == nil {
		return nil, fmt.Errorf("host: sandbox factory and backend registry are required")
	}
	if opts.Prover == nil {
		opts.Prover = proverconfig.New(nil).GetOptions()
	}
	if err := opts.Prover.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Driver{
		logger:   opts.Logger,
		sandbox:  opts.Sandbox,
		registry: opts.Registry,
		options:  opts.Prover,
		guard:    opts.MemoryGuard,
		metrics:  opts.Metrics,
		sink:     opts.Sink,
	}, nil
}

// Prove 运行访客并生成收据
func (d *Driver) Prove(ctx context.Context, image types.GuestImage, witness *logic.Witness) (*ProveInfo, error) {
	return d.ProveWith(ctx, image, witness, d.options.BackendChain())
}

// ProveWith 使用指定的后端链生成收据（首个后端优先，后端错误时依次回退）
func (d *Driver) ProveWith(ctx context.Context, image types.GuestImage, witness *logic.Witness, chain []string) (*ProveInfo, error) {
	start := time.Now()
	stats := Stats{JobID: uuid.NewString()}
	logger := d.logger.With("job_id", stats.JobID)

	info, err := d.prove(ctx, logger, image, witness, chain, &stats)
	stats.TotalDuration = time.Since(start)

	backend := stats.Backend
	if backend == "" && len(stats.Attempts) > 0 {
		backend = stats.Attempts[len(stats.Attempts)-1]
	}
	d.metrics.ObserveProve(backend, resultLabel(err), stats.TotalDuration)
	if err != nil {
		logger.Warnf("证明失败: image_id=%s, error=%v", image.ID(), err)
		return nil, err
	}

	info.Stats = stats
	logger.Infof("证明完成: image_id=%s, backend=%s, journal=%d字节, seal=%d字节, 耗时=%v",
		image.ID(), stats.Backend, stats.JournalBytes, stats.SealBytes, stats.TotalDuration)
	return info, nil
}

func (d *Driver) prove(ctx context.Context, logger log.Logger, image types.GuestImage, witness *logic.Witness, chain []string, stats *Stats) (*ProveInfo, error) {
	if len(chain) == 0 {
		return nil, types.WrapBackendError("select_backend", ErrNoBackend)
	}
	for _, name := range chain {
		if !proverconfig.IsKnownBackend(name) {
			return nil, fmt.Errorf("%w: %q", zkproof.ErrUnknownBackend, name)
		}
	}

	frame, err := logic.EncodeWitness(witness)
	if err != nil {
		return nil, err
	}
	defer logic.Wipe(frame)
	if limit := d.options.MaxWitnessBytes; limit > 0 && len(frame) > limit {
		return nil, types.WrapMalformedWitness("encode_witness", fmt.Errorf("%w: %d > %d bytes", ErrWitnessTooLarge, len(frame), limit))
	}

	if d.options.ProveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.ProveTimeout)
		defer cancel()
	}

	d.metrics.Inflight(1)
	defer d.metrics.Inflight(-1)

	// 1. 执行访客
	execStart := time.Now()
	journal, output, err := d.execute(ctx, image, frame)
	stats.ExecuteDuration = time.Since(execStart)
	d.metrics.ObservePhase("execute", stats.ExecuteDuration)
	if err != nil {
		return nil, err
	}
	stats.JournalBytes = len(journal)
	logger.Debugf("访客执行完成: journal=%d字节, 耗时=%v", len(journal), stats.ExecuteDuration)

	claim := types.ProofClaim{ImageID: image.ID(), JournalDigest: logic.JournalDigest(journal)}
	trace := types.DigestOf([]byte(traceDomainTag), claim.ImageID[:], types.DigestOf(frame).Bytes(), journal, types.DigestOf(output).Bytes())

	// 2. 生成封印
	proveStart := time.Now()
	seal, backend, err := d.seal(ctx, logger, claim, trace, chain, stats)
	stats.ProveDuration = time.Since(proveStart)
	d.metrics.ObservePhase("prove", stats.ProveDuration)
	if err != nil {
		logic.Wipe(output)
		return nil, err
	}
	stats.Backend = backend.Name()
	stats.SealBytes = len(seal)

	receipt := types.NewReceipt(seal, journal, types.ReceiptMetadata{ImageID: claim.ImageID, BackendID: backend.System()})

	// 3. 持久化钩子失败不影响收据返回
	if d.sink != nil {
		if id, err := d.sink.Put(ctx, receipt); err != nil {
			logger.Errorf("收据持久化失败: error=%v", err)
		} else {
			stats.StoredID = &id
		}
	}
	return &ProveInfo{Receipt: receipt, Output: output}, nil
}

// execute 在全新沙箱实例中运行访客
func (d *Driver) execute(ctx context.Context, image types.GuestImage, frame []byte) ([]byte, []byte, error) {
	sb, err := d.sandbox.NewSandbox(image)
	if err != nil {
		return nil, nil, types.WrapExecutionError("new_sandbox", err)
	}
	defer sb.Close(context.Background())

	if err := sb.Load(ctx, image); err != nil {
		return nil, nil, types.WrapExecutionError("load", err)
	}
	if err := sb.WriteInput(frame); err != nil {
		return nil, nil, types.WrapExecutionError("write_input", err)
	}

	status, err := sb.Run(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, types.WrapExecutionError("run", err)
	}
	switch {
	case status.Trapped:
		return nil, nil, types.WrapExecutionError("run", fmt.Errorf("%w: %s", ErrGuestTrap, status.Trap))
	case status.Code == guest.ExitMalformedInput:
		return nil, nil, types.WrapMalformedWitness("run", fmt.Errorf("%w: guest rejected witness frame", ErrGuestExit))
	case status.Code != guest.ExitOK:
		return nil, nil, types.WrapExecutionError("run", fmt.Errorf("%w: code=%d", ErrGuestExit, status.Code))
	}

	journal, err := sb.ReadJournal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := logic.DecodeJournal(journal); err != nil {
		return nil, nil, types.WrapExecutionError("read_journal", err)
	}
	return journal, sb.ReadOutput(), nil
}

// seal 依次尝试后端链，任何后端失败都按后端错误处理并回退；上下文取消立即返回
func (d *Driver) seal(ctx context.Context, logger log.Logger, claim types.ProofClaim, trace types.Digest, chain []string, stats *Stats) ([]byte, zkvm.ProofBackend, error) {
	var lastErr error
	for _, name := range chain {
		stats.Attempts = append(stats.Attempts, name)

		backend, err := d.registry.Backend(name)
		if err != nil {
			lastErr = types.WrapBackendError("select_backend", err)
			d.metrics.BackendError(name)
			continue
		}
		if err := d.checkMemory(name); err != nil {
			lastErr = err
			d.metrics.BackendError(name)
			logger.Warnf("后端资源不足，尝试下一个: backend=%s, error=%v", name, err)
			continue
		}

		seal, err := backend.Prove(ctx, claim, trace)
		if err == nil {
			return seal, backend, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if !errors.Is(err, types.ErrBackend) {
			err = types.WrapBackendError("prove", err)
		}
		lastErr = err
		d.metrics.BackendError(name)
		logger.Warnf("后端失败，尝试下一个: backend=%s, error=%v", name, err)
	}
	return nil, nil, lastErr
}

// checkMemory dev 后端不做证明计算，跳过内存检查
func (d *Driver) checkMemory(backend string) error {
	if backend == proverconfig.BackendDev || d.guard == nil {
		return nil
	}
	sample := d.guard.Sample()
	d.metrics.FreeMemory(sample.FreeBytes)
	if err := d.guard.Check(); err != nil {
		return types.WrapBackendError("memory_check", err)
	}
	return nil
}

// resultLabel 指标结果标签
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrMalformedWitness):
		return "malformed_witness"
	case errors.Is(err, types.ErrExecution):
		return "execution"
	case errors.Is(err, types.ErrBackend):
		return "backend"
	default:
		return "other"
	}
}
