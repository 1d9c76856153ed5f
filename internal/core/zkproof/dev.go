package zkproof

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ErrDevSealMismatch dev 封印与声明摘要不一致
var ErrDevSealMismatch = errors.New("dev seal does not match claim digest")

// DevBackend 开发用后端：封印为声明摘要，不提供任何密码学保证
//
// 只有启用 allow_dev 的验证器接受此类收据。
type DevBackend struct{}

var _ zkvm.ProofBackend = DevBackend{}

// Name 后端名
func (DevBackend) Name() string { return "dev" }

// System 证明系统
func (DevBackend) System() types.BackendID { return types.BackendDev }

// Prove 返回声明摘要
func (DevBackend) Prove(ctx context.Context, claim types.ProofClaim, _ types.Digest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return claim.Digest().Bytes(), nil
}

// DevSealVerifier dev 封印验证器
type DevSealVerifier struct{}

var _ zkvm.SealVerifier = DevSealVerifier{}

// System 证明系统
func (DevSealVerifier) System() types.BackendID { return types.BackendDev }

// VerifySeal 封印必须等于声明摘要
func (DevSealVerifier) VerifySeal(claim types.ProofClaim, seal []byte) error {
	expected := claim.Digest()
	if subtle.ConstantTimeCompare(expected[:], seal) != 1 {
		return types.WrapVerificationMismatch("dev_seal", ErrDevSealMismatch)
	}
	return nil
}
