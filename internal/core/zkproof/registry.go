package zkproof

import (
	"fmt"
	"sort"
	"sync"

	proverconfig "github.com/weisyn/zkreceipt/internal/config/prover"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Registry 证明后端与封印验证器注册表
//
// 后端按名称注册（cpu | gpu-cuda | gpu-metal | dev），验证器按证明系统注册。
type Registry struct {
	mu        sync.RWMutex
	backends  map[string]zkvm.ProofBackend
	verifiers map[types.BackendID]zkvm.SealVerifier
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		backends:  make(map[string]zkvm.ProofBackend),
		verifiers: make(map[types.BackendID]zkvm.SealVerifier),
	}
}

// NewDefaultRegistry 注册全部内置后端与验证器
func NewDefaultRegistry(setup *SetupStore, logger log.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewGroth16Backend(proverconfig.BackendCPU, setup, logger))
	r.Register(newCUDABackend(setup, logger))
	r.Register(newMetalBackend())
	r.Register(DevBackend{})
	r.RegisterVerifier(NewGroth16SealVerifier(setup))
	r.RegisterVerifier(DevSealVerifier{})
	return r
}

// Register 注册后端，同名覆盖
func (r *Registry) Register(b zkvm.ProofBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// RegisterVerifier 注册封印验证器，同一证明系统覆盖
func (r *Registry) RegisterVerifier(v zkvm.SealVerifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[v.System()] = v
}

// Backend 按名称获取后端
func (r *Registry) Backend(name string) (zkvm.ProofBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// SealVerifier 按证明系统获取验证器
func (r *Registry) SealVerifier(id types.BackendID) (zkvm.SealVerifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.verifiers[id]
	return v, ok
}

// Names 已注册后端名（排序）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
