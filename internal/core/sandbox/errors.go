package sandbox

import "errors"

// 沙箱错误定义
var (
	ErrNotLoaded        = errors.New("sandbox: image not loaded")
	ErrAlreadyRun       = errors.New("sandbox: instance already run")
	ErrNotRun           = errors.New("sandbox: guest has not run")
	ErrUnknownImageKind = errors.New("sandbox: unknown image kind")
	ErrUnknownGuest     = errors.New("sandbox: native guest not registered")
	ErrCompileFailed    = errors.New("sandbox: wasm compile failed")
	ErrOutputTooLarge   = errors.New("sandbox: guest output exceeds limit")
)
