// Package verifier 提供收据验证
//
// 验证步骤：
//  1. 收据镜像标识必须等于声明镜像标识
//  2. 声明固定日志摘要时，重新计算 sha256(journal) 并比较；否则日志交还调用方检查
//  3. 按收据的证明系统选择封印验证器，检查封印与 (镜像标识, 日志摘要) 一致
//
// 不一致返回 Valid=false 与原因，错误只用于验证器自身故障（如验证密钥无法加载）。
// 验证器无状态，可并发使用，从不接触见证数据。
package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	verifierconfig "github.com/weisyn/zkreceipt/internal/config/verifier"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// 不一致原因
const (
	ReasonNilReceipt      = "receipt is nil"
	ReasonImageMismatch   = "image id mismatch"
	ReasonJournalMismatch = "journal digest mismatch"
	ReasonDevNotAllowed   = "dev receipts are not accepted"
	ReasonUnknownBackend  = "unknown proof system"
	ReasonSealMismatch    = "seal does not match claim"
)

// Verifier 收据验证器
type Verifier struct {
	logger   log.Logger
	registry *zkproof.Registry
	options  *verifierconfig.VerifierOptions
	metrics  *metrics.Pipeline
}

var _ zkvm.Verifier = (*Verifier)(nil)

// New 创建验证器；options 为 nil 时不接受 dev 收据
func New(registry *zkproof.Registry, options *verifierconfig.VerifierOptions, logger log.Logger, pipeline *metrics.Pipeline) *Verifier {
	if options == nil {
		options = &verifierconfig.VerifierOptions{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Verifier{logger: logger, registry: registry, options: options, metrics: pipeline}
}

// Verify 验证收据
func (v *Verifier) Verify(ctx context.Context, receipt *types.Receipt, claim types.VerificationClaim) (*types.VerifyResult, error) {
	start := time.Now()
	result, err := v.verify(ctx, receipt, claim)
	switch {
	case err != nil:
		v.metrics.ObserveVerify("error", time.Since(start))
	case result.Valid:
		v.metrics.ObserveVerify("valid", time.Since(start))
	default:
		v.metrics.ObserveVerify("invalid", time.Since(start))
		v.logger.Debugf("收据验证不通过: image_id=%s, reason=%s", claim.ImageID, result.Reason)
	}
	return result, err
}

func (v *Verifier) verify(ctx context.Context, receipt *types.Receipt, claim types.VerificationClaim) (*types.VerifyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if receipt == nil {
		return invalid(ReasonNilReceipt), nil
	}

	// 1. 镜像标识
	if receipt.ImageID() != claim.ImageID {
		return invalid(ReasonImageMismatch), nil
	}

	// 2. 日志摘要
	journal := receipt.Journal()
	digest := logic.JournalDigest(journal)
	if claim.JournalDigest != nil && *claim.JournalDigest != digest {
		return invalid(ReasonJournalMismatch), nil
	}

	// 3. 封印
	backend := receipt.BackendID()
	if backend == types.BackendDev && !v.options.AllowDev {
		return invalid(ReasonDevNotAllowed), nil
	}
	if v.registry == nil {
		return nil, zkproof.ErrVerifierNotInitialized
	}
	sealVerifier, ok := v.registry.SealVerifier(backend)
	if !ok {
		return invalid(fmt.Sprintf("%s: %s", ReasonUnknownBackend, backend)), nil
	}

	proofClaim := types.ProofClaim{ImageID: claim.ImageID, JournalDigest: digest}
	if err := sealVerifier.VerifySeal(proofClaim, receipt.Seal()); err != nil {
		if errors.Is(err, types.ErrVerificationMismatch) {
			return invalid(fmt.Sprintf("%s: %v", ReasonSealMismatch, err)), nil
		}
		return nil, fmt.Errorf("verify seal: %w", err)
	}

	result := &types.VerifyResult{Valid: true}
	if claim.JournalDigest == nil {
		result.Journal = journal
	}
	return result, nil
}

// VerifyBool 只返回是否通过；验证器故障视为不通过
func (v *Verifier) VerifyBool(ctx context.Context, receipt *types.Receipt, claim types.VerificationClaim) bool {
	result, err := v.Verify(ctx, receipt, claim)
	return err == nil && result.Valid
}

// Check 验证并把不一致转换为 ErrVerificationMismatch（命令行退出码使用）
func (v *Verifier) Check(ctx context.Context, receipt *types.Receipt, claim types.VerificationClaim) (*types.VerifyResult, error) {
	result, err := v.Verify(ctx, receipt, claim)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, types.WrapVerificationMismatch("verify", errors.New(result.Reason))
	}
	return result, nil
}

func invalid(reason string) *types.VerifyResult {
	return &types.VerifyResult{Valid: false, Reason: reason}
}
