// Package zkproof provides error definitions for zero-knowledge proof operations.
package zkproof

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            零知识证明错误定义
// ============================================================================

var (
	// ErrCircuitCompilationFailed 电路编译失败错误
	ErrCircuitCompilationFailed = errors.New("circuit compilation failed")

	// ErrSetupFailed 可信设置生成或加载失败错误
	ErrSetupFailed = errors.New("trusted setup failed")

	// ErrProofGenerationFailed 证明生成失败错误
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// ErrAcceleratorUnavailable 加速器不可用错误
	ErrAcceleratorUnavailable = errors.New("accelerator unavailable")

	// ErrUnknownBackend 未注册的后端名
	ErrUnknownBackend = errors.New("unknown prover backend")

	// ErrInvalidSeal 封印格式错误
	ErrInvalidSeal = errors.New("invalid seal")

	// ErrSealChecksum 封印校验和不匹配
	ErrSealChecksum = errors.New("seal checksum mismatch")

	// ErrVerifyingKeyMismatch 封印由其他验证密钥生成
	ErrVerifyingKeyMismatch = errors.New("seal produced under a different verifying key")

	// ErrProofRejected 证明未通过 groth16 验证
	ErrProofRejected = errors.New("proof rejected")

	// ErrVerifierNotInitialized 验证密钥未加载
	ErrVerifierNotInitialized = errors.New("verifier not initialized")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapCircuitCompilationFailedError 包装电路编译失败错误
func WrapCircuitCompilationFailedError(circuitID string, err error) error {
	return fmt.Errorf("%w: circuitID=%s, cause=%v", ErrCircuitCompilationFailed, circuitID, err)
}

// WrapSetupFailedError 包装可信设置失败错误
func WrapSetupFailedError(circuitID string, err error) error {
	return fmt.Errorf("%w: circuitID=%s, cause=%v", ErrSetupFailed, circuitID, err)
}

// WrapProofGenerationFailedError 包装证明生成失败错误
func WrapProofGenerationFailedError(backend string, err error) error {
	return fmt.Errorf("%w: backend=%s, cause=%v", ErrProofGenerationFailed, backend, err)
}

// WrapInvalidSealError 包装封印格式错误
func WrapInvalidSealError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSeal, reason)
}
