package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// 错误码
const (
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeMalformedWitness     = "MALFORMED_WITNESS"
	CodeExecutionError       = "EXECUTION_ERROR"
	CodeBackendError         = "BACKEND_ERROR"
	CodeVerificationMismatch = "VERIFICATION_MISMATCH"
	CodeEncodingError        = "ENCODING_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeInternal             = "INTERNAL"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Classify 流水线错误到 HTTP 状态与错误码
//
// 判定顺序与 types.ExitCodeFor 一致，同一错误在命令行与 HTTP 上归为同一类。
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrMalformedWitness):
		return http.StatusBadRequest, CodeMalformedWitness
	case errors.Is(err, types.ErrExecution):
		return http.StatusUnprocessableEntity, CodeExecutionError
	case errors.Is(err, types.ErrBackend):
		return http.StatusServiceUnavailable, CodeBackendError
	case errors.Is(err, types.ErrVerificationMismatch):
		return http.StatusUnprocessableEntity, CodeVerificationMismatch
	case errors.Is(err, types.ErrEncoding):
		return http.StatusBadRequest, CodeEncodingError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// WriteError 按错误分类写入错误响应
func WriteError(c *gin.Context, err error) {
	status, code := Classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   err.Error(),
		Retryable: types.IsRetryable(err),
		RequestID: GetRequestID(c),
	}})
}

// WriteErrorCode 写入指定状态与错误码
func WriteErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(c),
	}})
}
