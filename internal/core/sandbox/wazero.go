package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	sandboxconfig "github.com/weisyn/zkreceipt/internal/config/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/guest"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// WazeroEngine 基于 wazero 的 WASI 访客执行引擎
//
// 🎯 **核心职责**：编译并缓存访客模块，为每次证明创建全新的模块实例
//
// 📋 **隔离策略**：
// - 仅挂载 stdin（见证帧）与 stdout（提交帧），stderr 丢弃
// - 不挂载文件系统、不传环境变量
// - 不设置 walltime/nanotime/随机源：wazero 默认提供假时钟与确定性随机数
// - 线性内存页数上限，上下文取消时强制关闭实例
//
// 运行时与已编译模块只读共享，实例之间不共享可变状态。
type WazeroEngine struct {
	logger  log.Logger
	runtime wazero.Runtime
	options *sandboxconfig.SandboxOptions

	// 已编译模块缓存：镜像标识 → wazero.CompiledModule
	compiled sync.Map
	mu       sync.Mutex
}

// NewWazeroEngine 创建 wazero 执行引擎
func NewWazeroEngine(ctx context.Context, options *sandboxconfig.SandboxOptions, logger log.Logger) (*WazeroEngine, error) {
	if options == nil {
		options = sandboxconfig.New(nil).GetOptions()
	}
	if logger == nil {
		logger = log.Nop()
	}

	var rtConfig wazero.RuntimeConfig
	if options.UseCompiler {
		rtConfig = wazero.NewRuntimeConfig()
	} else {
		rtConfig = wazero.NewRuntimeConfigInterpreter()
	}
	rtConfig = rtConfig.
		WithCompilationCache(wazero.NewCompilationCache()).
		WithMemoryLimitPages(options.MaxMemoryPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	// wasip1 访客依赖 WASI，必须先于访客模块实例化
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("WASI模块实例化失败: %w", err)
	}
	logger.Debugf("wazero 引擎就绪: compiler=%v, max_memory_pages=%d", options.UseCompiler, options.MaxMemoryPages)

	return &WazeroEngine{
		logger:  logger,
		runtime: runtime,
		options: options,
	}, nil
}

// compile 编译镜像，按镜像标识缓存
func (e *WazeroEngine) compile(ctx context.Context, image types.GuestImage) (wazero.CompiledModule, error) {
	key := image.ID()
	if v, ok := e.compiled.Load(key); ok {
		return v.(wazero.CompiledModule), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.compiled.Load(key); ok {
		return v.(wazero.CompiledModule), nil
	}

	compiled, err := e.runtime.CompileModule(ctx, image.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompileFailed, err)
	}
	for _, def := range compiled.ImportedFunctions() {
		moduleName, funcName, _ := def.Import()
		e.logger.Debugf("访客导入函数: [%s] %s", moduleName, funcName)
	}
	e.compiled.Store(key, compiled)
	e.logger.Infof("访客镜像已编译: image_id=%s", key)
	return compiled, nil
}

// NewSandbox 创建全新的 wasm 沙箱实例
func (e *WazeroEngine) NewSandbox() zkvm.Sandbox {
	return &wasmSandbox{engine: e}
}

// Close 关闭运行时及全部已编译模块
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// wasmSandbox 单次运行的 wasm 沙箱
type wasmSandbox struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	input    []byte
	stdout   *cappedBuffer
	ran      bool
	commit   *guest.Commit
}

func (s *wasmSandbox) Load(ctx context.Context, image types.GuestImage) error {
	if image.Kind != types.ImageKindWasm {
		return fmt.Errorf("%w: %s", ErrUnknownImageKind, image.Kind)
	}
	compiled, err := s.engine.compile(ctx, image)
	if err != nil {
		return err
	}
	s.compiled = compiled
	return nil
}

func (s *wasmSandbox) WriteInput(frame []byte) error {
	if s.ran {
		return ErrAlreadyRun
	}
	s.input = frame
	return nil
}

func (s *wasmSandbox) Run(ctx context.Context) (zkvm.ExitStatus, error) {
	if s.compiled == nil {
		return zkvm.ExitStatus{}, ErrNotLoaded
	}
	if s.ran {
		return zkvm.ExitStatus{}, ErrAlreadyRun
	}
	s.ran = true
	s.stdout = newCappedBuffer(maxGuestOutputBytes(len(s.input)))

	moduleConfig := wazero.NewModuleConfig().
		WithName("guest-" + uuid.NewString()).
		WithArgs("zkguest").
		WithStdin(bytes.NewReader(s.input)).
		WithStdout(s.stdout).
		WithStderr(io.Discard)

	mod, err := s.engine.runtime.InstantiateModule(ctx, s.compiled, moduleConfig)
	if mod != nil {
		_ = mod.Close(ctx)
	}
	if err == nil {
		return zkvm.ExitStatus{Code: 0}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zkvm.ExitStatus{}, ctxErr
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return zkvm.ExitStatus{Code: exitErr.ExitCode()}, nil
	}
	return zkvm.ExitStatus{Trapped: true, Trap: err.Error()}, nil
}

func (s *wasmSandbox) ReadJournal() ([]byte, error) {
	commit, err := s.readCommit()
	if err != nil {
		return nil, err
	}
	return append([]byte{}, commit.Journal...), nil
}

func (s *wasmSandbox) ReadOutput() []byte {
	commit, err := s.readCommit()
	if err != nil || commit.Output == nil {
		return nil
	}
	return append([]byte{}, commit.Output...)
}

func (s *wasmSandbox) readCommit() (*guest.Commit, error) {
	if !s.ran || s.stdout == nil {
		return nil, types.WrapExecutionError("read_journal", ErrNotRun)
	}
	if s.commit == nil {
		if s.stdout.overflow {
			return nil, types.WrapExecutionError("read_journal", ErrOutputTooLarge)
		}
		commit, err := guest.DecodeCommit(s.stdout.Bytes())
		if err != nil {
			return nil, err
		}
		s.commit = commit
	}
	return s.commit, nil
}

func (s *wasmSandbox) Close(context.Context) error {
	if s.stdout != nil {
		s.stdout.Wipe()
	}
	s.commit = nil
	s.input = nil
	return nil
}

// maxGuestOutputBytes 提交帧上限：日志 + 私有输出（最多比输入多一个 GCM 标签）+ 帧头
func maxGuestOutputBytes(inputLen int) int {
	return 2*inputLen + 4096
}

// cappedBuffer 超出上限后拒绝写入的缓冲区
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.limit {
		b.overflow = true
		return 0, ErrOutputTooLarge
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) Bytes() []byte { return b.buf.Bytes() }

// Wipe 清零已写入内容（私有输出）
func (b *cappedBuffer) Wipe() {
	data := b.buf.Bytes()
	for i := range data {
		data[i] = 0
	}
	b.buf.Reset()
}
