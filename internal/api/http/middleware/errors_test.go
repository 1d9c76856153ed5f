package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weisyn/zkreceipt/pkg/types"
)

func TestClassify(t *testing.T) {
	cause := errors.New("cause")
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		exit   int
	}{
		{"见证格式", types.WrapMalformedWitness("parse", cause), http.StatusBadRequest, CodeMalformedWitness, types.ExitMalformedWitness},
		{"执行失败", types.WrapExecutionError("run", cause), http.StatusUnprocessableEntity, CodeExecutionError, types.ExitExecutionError},
		// 访客输出非法日志：执行错误包着编码错误
		{"执行包编码", types.WrapExecutionError("read_journal", types.WrapEncodingError("journal", cause)), http.StatusUnprocessableEntity, CodeExecutionError, types.ExitExecutionError},
		{"后端", types.WrapBackendError("prove", cause), http.StatusServiceUnavailable, CodeBackendError, types.ExitBackendError},
		{"不一致", types.WrapVerificationMismatch("verify", cause), http.StatusUnprocessableEntity, CodeVerificationMismatch, types.ExitVerificationMismatch},
		{"编码", types.WrapEncodingError("decode", cause), http.StatusBadRequest, CodeEncodingError, types.ExitEncodingError},
		{"其他", cause, http.StatusInternalServerError, CodeInternal, types.ExitOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := Classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.exit, types.ExitCodeFor(tc.err))
		})
	}
}
