package zkproof

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Groth16Backend Groth16/BN254 证明后端
//
// 🎯 **专门职责**：为收据声明生成 groth16 封印
// 🏗️ **技术栈**：gnark groth16；cpu 与 gpu-cuda 只在 ProverOption 上不同，封印可互换
//
// 封印是宿主对 (镜像标识, 日志摘要) 声明的证明方签署，不证明访客执行，
// 见 ReceiptClaimCircuit 的信任模型说明。
type Groth16Backend struct {
	name    string
	setup   *SetupStore
	logger  log.Logger
	options []backend.ProverOption
	rand    io.Reader
}

var _ zkvm.ProofBackend = (*Groth16Backend)(nil)

// NewGroth16Backend 创建 groth16 后端
func NewGroth16Backend(name string, setup *SetupStore, logger log.Logger, options ...backend.ProverOption) *Groth16Backend {
	if logger == nil {
		logger = log.Nop()
	}
	return &Groth16Backend{
		name:    name,
		setup:   setup,
		logger:  logger,
		options: options,
		rand:    rand.Reader,
	}
}

// Name 后端名
func (b *Groth16Backend) Name() string { return b.name }

// System 封印所属证明系统
func (b *Groth16Backend) System() types.BackendID { return types.BackendGroth16BN254 }

type proveResult struct {
	seal []byte
	err  error
}

// Prove 生成封印
//
// gnark 证明不可中断：上下文取消时放弃等待，后台证明运行至结束后丢弃。
func (b *Groth16Backend) Prove(ctx context.Context, claim types.ProofClaim, trace types.Digest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	setup, err := b.setup.Get()
	if err != nil {
		return nil, types.WrapBackendError("setup", err)
	}

	blinding := make([]byte, BlindingSize)
	if _, err := io.ReadFull(b.rand, blinding); err != nil {
		return nil, types.WrapBackendError("blinding", err)
	}

	done := make(chan proveResult, 1)
	go func() {
		seal, err := b.prove(setup, claim, trace, blinding)
		done <- proveResult{seal: seal, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.seal, res.err
	}
}

func (b *Groth16Backend) prove(setup *TrustedSetup, claim types.ProofClaim, trace types.Digest, blinding []byte) ([]byte, error) {
	defer wipe(blinding)
	quietGnark()
	start := time.Now()

	commitment, err := ComputeCommitment(claim, trace, blinding)
	if err != nil {
		return nil, types.WrapBackendError("commit", WrapProofGenerationFailedError(b.name, err))
	}
	fullWitness, err := frontend.NewWitness(newFullAssignment(claim, trace, blinding, commitment), ecc.BN254.ScalarField())
	if err != nil {
		return nil, types.WrapBackendError("witness", WrapProofGenerationFailedError(b.name, err))
	}

	proof, err := groth16.Prove(setup.CS, setup.ProvingKey, fullWitness, b.options...)
	if err != nil {
		return nil, types.WrapBackendError("prove", WrapProofGenerationFailedError(b.name, err))
	}

	seal, err := EncodeSeal(setup.VKHash, commitment, proof)
	if err != nil {
		return nil, types.WrapBackendError("seal", err)
	}
	b.logger.Debugf("groth16 证明完成: backend=%s, 耗时=%v, seal=%d字节", b.name, time.Since(start), len(seal))
	return seal, nil
}

// Groth16SealVerifier groth16 封印验证器
type Groth16SealVerifier struct {
	setup *SetupStore
}

var _ zkvm.SealVerifier = (*Groth16SealVerifier)(nil)

// NewGroth16SealVerifier 创建封印验证器
func NewGroth16SealVerifier(setup *SetupStore) *Groth16SealVerifier {
	return &Groth16SealVerifier{setup: setup}
}

// System 证明系统
func (v *Groth16SealVerifier) System() types.BackendID { return types.BackendGroth16BN254 }

// VerifySeal 验证封印
//
// 封印与声明不一致返回 ErrVerificationMismatch；验证密钥不可用返回其他错误。
func (v *Groth16SealVerifier) VerifySeal(claim types.ProofClaim, seal []byte) error {
	if v.setup == nil {
		return ErrVerifierNotInitialized
	}
	vk, vkHash, err := v.setup.VerifyingKey()
	if err != nil {
		if errors.Is(err, ErrVerifierNotInitialized) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrVerifierNotInitialized, err)
	}

	parsed, err := DecodeSeal(seal)
	if err != nil {
		return types.WrapVerificationMismatch("decode_seal", err)
	}
	if parsed.VKHash != vkHash {
		return types.WrapVerificationMismatch("vk_hash", ErrVerifyingKeyMismatch)
	}

	quietGnark()
	publicWitness, err := frontend.NewWitness(newPublicAssignment(claim, parsed.Commitment), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return types.WrapVerificationMismatch("public_witness", err)
	}
	if err := groth16.Verify(parsed.Proof, vk, publicWitness); err != nil {
		return types.WrapVerificationMismatch("groth16_verify", fmt.Errorf("%w: %v", ErrProofRejected, err))
	}
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
