package logic

import (
	"fmt"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// 日志布局：静态 Solidity ABI 元组，每个字段占一个 32 字节字
//
//	加密/解密 (uint8 version, uint8 mode, bool success, bytes12 nonce,
//	          bytes32 inputDigest, bytes32 outputDigest)       6 字 = 192 字节
//	校验     (uint8 version, uint8 mode, uint8 status,
//	          bytes32 schemaDigest, bytes32 documentDigest)    5 字 = 160 字节
//
// 手工编码以保持访客程序轻量，布局与 go-ethereum abi 编码结果逐字节一致。
const (
	JournalVersion = 1

	wordSize = 32

	NonceSize = 12

	EncryptionJournalSize = 6 * wordSize
	ValidationJournalSize = 5 * wordSize
)

// ValidationStatus 校验结果
type ValidationStatus uint8

const (
	StatusInvalid     ValidationStatus = 0 // 文档不符合模式
	StatusValid       ValidationStatus = 1 // 文档符合模式
	StatusUnsupported ValidationStatus = 2 // 模式使用了不支持的构造
)

func (s ValidationStatus) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusValid:
		return "valid"
	case StatusUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Journal 公开日志
//
// 加密模式使用 Success/Nonce/InputDigest/OutputDigest，
// 校验模式使用 Status/SchemaDigest/DocumentDigest。
type Journal struct {
	Mode Mode

	Success      bool
	Nonce        [NonceSize]byte
	InputDigest  types.Digest // sha256(aad || input)
	OutputDigest types.Digest // sha256(aad || output)，失败时全零

	Status         ValidationStatus
	SchemaDigest   types.Digest
	DocumentDigest types.Digest
}

// Encode 编码为规范的日志字节
func (j *Journal) Encode() []byte {
	if j.Mode == ModeValidate {
		out := make([]byte, ValidationJournalSize)
		putUint8Word(out[0:], JournalVersion)
		putUint8Word(out[wordSize:], uint8(j.Mode))
		putUint8Word(out[2*wordSize:], uint8(j.Status))
		copy(out[3*wordSize:], j.SchemaDigest[:])
		copy(out[4*wordSize:], j.DocumentDigest[:])
		return out
	}
	out := make([]byte, EncryptionJournalSize)
	putUint8Word(out[0:], JournalVersion)
	putUint8Word(out[wordSize:], uint8(j.Mode))
	if j.Success {
		putUint8Word(out[2*wordSize:], 1)
	}
	copy(out[3*wordSize:], j.Nonce[:])
	copy(out[4*wordSize:], j.InputDigest[:])
	copy(out[5*wordSize:], j.OutputDigest[:])
	return out
}

// Digest 返回 sha256(Encode())
func (j *Journal) Digest() types.Digest {
	return JournalDigest(j.Encode())
}

// JournalDigest 计算日志摘要
func JournalDigest(journal []byte) types.Digest {
	return types.DigestOf(journal)
}

// DecodeJournal 严格解析日志字节
//
// 只接受 Encode 能产生的规范形式：小整数字的高位必须为零，bool 只能为 0/1，
// bytes12 右侧填充必须为零。
func DecodeJournal(b []byte) (*Journal, error) {
	const op = "decode_journal"
	if len(b) != EncryptionJournalSize && len(b) != ValidationJournalSize {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %d bytes", ErrJournalLength, len(b)))
	}
	version, err := uint8Word(b[0:])
	if err != nil {
		return nil, types.WrapEncodingError(op, fmt.Errorf("version: %w", err))
	}
	if version != JournalVersion {
		return nil, types.WrapEncodingError(op, fmt.Errorf("unsupported journal version %d", version))
	}
	mode, err := uint8Word(b[wordSize:])
	if err != nil {
		return nil, types.WrapEncodingError(op, fmt.Errorf("mode: %w", err))
	}
	j := &Journal{Mode: Mode(mode)}

	switch {
	case j.Mode == ModeValidate && len(b) == ValidationJournalSize:
		status, err := uint8Word(b[2*wordSize:])
		if err != nil || ValidationStatus(status) > StatusUnsupported {
			return nil, types.WrapEncodingError(op, fmt.Errorf("%w: status", ErrJournalWord))
		}
		j.Status = ValidationStatus(status)
		copy(j.SchemaDigest[:], b[3*wordSize:4*wordSize])
		copy(j.DocumentDigest[:], b[4*wordSize:5*wordSize])

	case j.Mode.IsEncryption() && len(b) == EncryptionJournalSize:
		success, err := uint8Word(b[2*wordSize:])
		if err != nil || success > 1 {
			return nil, types.WrapEncodingError(op, fmt.Errorf("%w: success flag", ErrJournalWord))
		}
		j.Success = success == 1
		nonceWord := b[3*wordSize : 4*wordSize]
		for _, c := range nonceWord[NonceSize:] {
			if c != 0 {
				return nil, types.WrapEncodingError(op, fmt.Errorf("%w: nonce padding", ErrJournalWord))
			}
		}
		copy(j.Nonce[:], nonceWord[:NonceSize])
		copy(j.InputDigest[:], b[4*wordSize:5*wordSize])
		copy(j.OutputDigest[:], b[5*wordSize:6*wordSize])
		if !j.Success && !j.OutputDigest.IsZero() {
			return nil, types.WrapEncodingError(op, fmt.Errorf("%w: output digest on failure", ErrJournalWord))
		}

	default:
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: mode %d with %d bytes", ErrJournalLength, mode, len(b)))
	}
	return j, nil
}

func putUint8Word(dst []byte, v uint8) {
	dst[wordSize-1] = v
}

func uint8Word(w []byte) (uint8, error) {
	for _, c := range w[:wordSize-1] {
		if c != 0 {
			return 0, ErrJournalWord
		}
	}
	return w[wordSize-1], nil
}
