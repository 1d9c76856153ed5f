package host

import "errors"

var (
	// ErrWitnessTooLarge 见证帧超过配置上限
	ErrWitnessTooLarge = errors.New("witness frame exceeds limit")

	// ErrGuestExit 访客以非零退出码结束
	ErrGuestExit = errors.New("guest exited abnormally")

	// ErrGuestTrap 访客异常终止
	ErrGuestTrap = errors.New("guest trapped")

	// ErrNoBackend 没有可用的证明后端
	ErrNoBackend = errors.New("no prover backend configured")
)
