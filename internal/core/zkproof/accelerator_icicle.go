//go:build icicle

package zkproof

import (
	"github.com/consensys/gnark/backend"

	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
)

// IcicleAvailable 当前构建是否包含 icicle CUDA 加速
const IcicleAvailable = true

// newCUDABackend icicle 加速的 groth16 后端，封印与 cpu 后端可互换
func newCUDABackend(setup *SetupStore, logger log.Logger) zkvm.ProofBackend {
	return NewGroth16Backend("gpu-cuda", setup, logger, backend.WithIcicleAcceleration())
}
