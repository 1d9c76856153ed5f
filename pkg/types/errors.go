package types

import (
	"errors"
	"fmt"
)

// 流水线错误分类
//
// 计算被拒绝（解密标签失败、文档不符合模式）不是错误，而是日志内容。
var (
	ErrMalformedWitness     = errors.New("malformed witness")
	ErrExecution            = errors.New("execution error")
	ErrBackend              = errors.New("backend error")
	ErrVerificationMismatch = errors.New("verification mismatch")
	ErrEncoding             = errors.New("encoding error")
)

// 命令行退出码
const (
	ExitOK                   = 0
	ExitOther                = 1
	ExitMalformedWitness     = 2
	ExitExecutionError       = 3
	ExitBackendError         = 4
	ExitVerificationMismatch = 5
	ExitEncodingError        = 6
)

// PipelineError 携带分类、操作名与可重试标记的错误
//
// 同时支持 errors.Is(err, ErrBackend) 与 errors.Is(err, cause)。
type PipelineError struct {
	Kind      error  // 分类哨兵错误
	Op        string // 出错的操作
	Retryable bool   // 是否值得重试（仅资源类后端错误）
	Err       error  // 底层原因
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap 同时暴露分类与原因
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapMalformedWitness 包装见证数据格式错误
func WrapMalformedWitness(op string, err error) error {
	return &PipelineError{Kind: ErrMalformedWitness, Op: op, Err: err}
}

// WrapExecutionError 包装访客执行错误
func WrapExecutionError(op string, err error) error {
	return &PipelineError{Kind: ErrExecution, Op: op, Err: err}
}

// WrapBackendError 包装证明后端错误（可重试）
func WrapBackendError(op string, err error) error {
	return &PipelineError{Kind: ErrBackend, Op: op, Retryable: true, Err: err}
}

// WrapVerificationMismatch 包装验证不一致
func WrapVerificationMismatch(op string, err error) error {
	return &PipelineError{Kind: ErrVerificationMismatch, Op: op, Err: err}
}

// WrapEncodingError 包装编码错误
func WrapEncodingError(op string, err error) error {
	return &PipelineError{Kind: ErrEncoding, Op: op, Err: err}
}

// IsRetryable 错误是否可重试
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// ExitCodeFor 将错误映射为命令行退出码
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrMalformedWitness):
		return ExitMalformedWitness
	case errors.Is(err, ErrExecution):
		return ExitExecutionError
	case errors.Is(err, ErrBackend):
		return ExitBackendError
	case errors.Is(err, ErrVerificationMismatch):
		return ExitVerificationMismatch
	case errors.Is(err, ErrEncoding):
		return ExitEncodingError
	default:
		return ExitOther
	}
}
