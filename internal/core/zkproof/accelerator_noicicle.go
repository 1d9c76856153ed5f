//go:build !icicle

package zkproof

import (
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// IcicleAvailable 当前构建是否包含 icicle CUDA 加速
const IcicleAvailable = false

func newCUDABackend(*SetupStore, log.Logger) zkvm.ProofBackend {
	return &unavailableBackend{name: "gpu-cuda", system: types.BackendGroth16BN254, reason: "built without the icicle tag"}
}
