package zkproof

import (
	"context"
	"fmt"

	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// unavailableBackend 已识别但当前构建不可用的加速器
//
// Prove 总是返回可重试的 BackendError，宿主据此回退到下一个后端。
type unavailableBackend struct {
	name   string
	system types.BackendID
	reason string
}

var _ zkvm.ProofBackend = (*unavailableBackend)(nil)

func (b *unavailableBackend) Name() string            { return b.name }
func (b *unavailableBackend) System() types.BackendID { return b.system }

func (b *unavailableBackend) Prove(context.Context, types.ProofClaim, types.Digest) ([]byte, error) {
	return nil, types.WrapBackendError("prove", fmt.Errorf("%w: %s: %s", ErrAcceleratorUnavailable, b.name, b.reason))
}

// newMetalBackend 当前没有 Metal 证明器实现
func newMetalBackend() zkvm.ProofBackend {
	return &unavailableBackend{name: "gpu-metal", system: types.BackendGroth16BN254, reason: "no Metal prover in this build"}
}
