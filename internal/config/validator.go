package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("配置验证失败，发现以下问题：\n")
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap 暴露全部错误
func (e *ValidationErrors) Unwrap() []error { return e.Errors }

// ValidateProvider 启动前校验应用默认值后的完整配置
//
// 📋 **校验项**：
// - prover.backend / prover.fallback 必须是已知后端
// - 并发数为正数，见证上限在 (0, 16 MiB] 内（访客读取上限）
// - sandbox.kind=wasm 时镜像文件必须存在
// - api.http_port 在 0..65535
// - onchain.verifier_address 为合法十六进制地址
func ValidateProvider(provider config.Provider) error {
	var errs []error

	if err := provider.GetProver().Validate(); err != nil {
		errs = append(errs, &ValidationError{Field: "prover.backend", Message: err.Error()})
	}
	prover := provider.GetProver()
	if prover.MaxConcurrentProofs <= 0 {
		errs = append(errs, &ValidationError{Field: "prover.max_concurrent_proofs", Message: "必须大于0"})
	}
	switch {
	case prover.MaxWitnessBytes <= 0:
		errs = append(errs, &ValidationError{Field: "prover.max_witness_bytes", Message: "必须大于0"})
	case prover.MaxWitnessBytes > logic.DefaultMaxWitnessBytes:
		// 访客自身按 logic.DefaultMaxWitnessBytes 截断输入
		errs = append(errs, &ValidationError{Field: "prover.max_witness_bytes",
			Message: fmt.Sprintf("不能超过访客上限 %d 字节: %d", logic.DefaultMaxWitnessBytes, prover.MaxWitnessBytes)})
	}

	sandbox := provider.GetSandbox()
	switch types.ImageKind(sandbox.Kind) {
	case types.ImageKindNative:
	case types.ImageKindWasm:
		if sandbox.ImagePath == "" {
			errs = append(errs, &ValidationError{Field: "sandbox.image_path", Message: "wasm 沙箱必须配置访客镜像路径"})
		} else if _, err := os.Stat(sandbox.ImagePath); err != nil {
			errs = append(errs, &ValidationError{Field: "sandbox.image_path", Message: fmt.Sprintf("访客镜像不可读: %v", err)})
		}
	default:
		errs = append(errs, &ValidationError{Field: "sandbox.kind", Message: fmt.Sprintf("未知沙箱类型 %q（wasm | native）", sandbox.Kind)})
	}

	if api := provider.GetAPI(); api.HTTPPort < 0 || api.HTTPPort > 65535 {
		errs = append(errs, &ValidationError{Field: "api.http_port", Message: fmt.Sprintf("端口超出范围: %d", api.HTTPPort)})
	}

	if addr := provider.GetOnChain().VerifierAddress; addr != "" && !common.IsHexAddress(addr) {
		errs = append(errs, &ValidationError{Field: "onchain.verifier_address", Message: fmt.Sprintf("无效的合约地址: %s", addr)})
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}
