package logic

import "errors"

// 见证帧错误
var (
	ErrNilWitness         = errors.New("nil witness")
	ErrShortFrame         = errors.New("truncated frame")
	ErrBadMagic           = errors.New("bad frame magic")
	ErrUnsupportedVersion = errors.New("unsupported frame version")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrTrailingBytes      = errors.New("trailing bytes after frame")
)

// 计算输入错误
var (
	ErrInvalidKeyLength   = errors.New("invalid AES key length")
	ErrInvalidNonceLength = errors.New("invalid AES-GCM nonce length")
	ErrInvalidJSON        = errors.New("invalid JSON")
	ErrInvalidSchema      = errors.New("invalid JSON schema")
)

// 日志编码错误
var (
	ErrJournalLength = errors.New("invalid journal length")
	ErrJournalWord   = errors.New("non-canonical journal word")
)
