package logic

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// Mode 计算模式
type Mode uint8

const (
	ModeEncrypt  Mode = 1 // AES-GCM 加密
	ModeDecrypt  Mode = 2 // AES-GCM 解密
	ModeValidate Mode = 3 // JSON Schema 校验
)

// String 返回模式名
func (m Mode) String() string {
	switch m {
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	case ModeValidate:
		return "validate"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid 是否为已知模式
func (m Mode) Valid() bool {
	return m >= ModeEncrypt && m <= ModeValidate
}

// IsEncryption 加密或解密模式
func (m Mode) IsEncryption() bool {
	return m == ModeEncrypt || m == ModeDecrypt
}

// ParseMode 解析模式名
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encrypt":
		return ModeEncrypt, nil
	case "decrypt":
		return ModeDecrypt, nil
	case "validate":
		return ModeValidate, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Witness 私有输入
//
// 加密模式使用 Key/Nonce/AAD/Payload（明文或 密文||标签）；
// 校验模式使用 Document/Schema。见证数据从不落盘，用完后调用 Zero 清除。
type Witness struct {
	Mode Mode

	Key     []byte
	Nonce   []byte
	AAD     []byte
	Payload []byte

	Document []byte
	Schema   []byte
}

// Zero 清零所有私有字段
func (w *Witness) Zero() {
	for _, b := range [][]byte{w.Key, w.Nonce, w.AAD, w.Payload, w.Document, w.Schema} {
		Wipe(b)
	}
}

// Wipe 原地清零字节切片
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// 见证帧格式
//
//	magic "ZKW1" | version u8 | mode u8 | 依次为 u32(BE) 长度前缀字段
//	加密：key, nonce, aad, payload
//	校验：document, schema
const (
	witnessMagic   = "ZKW1"
	WitnessVersion = 1

	witnessHeaderSize = len(witnessMagic) + 2

	// DefaultMaxWitnessBytes 见证帧默认上限 16 MiB
	DefaultMaxWitnessBytes = 16 << 20
)

func (w *Witness) fields() [][]byte {
	if w.Mode == ModeValidate {
		return [][]byte{w.Document, w.Schema}
	}
	return [][]byte{w.Key, w.Nonce, w.AAD, w.Payload}
}

// EncodeWitness 编码见证帧
func EncodeWitness(w *Witness) ([]byte, error) {
	if w == nil {
		return nil, types.WrapMalformedWitness("encode_witness", ErrNilWitness)
	}
	if !w.Mode.Valid() {
		return nil, types.WrapMalformedWitness("encode_witness", fmt.Errorf("%w: %d", ErrUnknownMode, w.Mode))
	}
	fields := w.fields()
	size := witnessHeaderSize
	for _, f := range fields {
		size += 4 + len(f)
	}
	out := make([]byte, 0, size)
	out = append(out, witnessMagic...)
	out = append(out, WitnessVersion, byte(w.Mode))
	for _, f := range fields {
		out = binary.BigEndian.AppendUint32(out, uint32(len(f)))
		out = append(out, f...)
	}
	return out, nil
}

// DecodeWitness 解析见证帧
//
// 字段为帧缓冲区的拷贝；截断、尾随字节、未知版本或模式均返回 ErrMalformedWitness。
func DecodeWitness(frame []byte) (*Witness, error) {
	const op = "decode_witness"
	if len(frame) < witnessHeaderSize {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame)))
	}
	if string(frame[:4]) != witnessMagic {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %q", ErrBadMagic, frame[:4]))
	}
	if frame[4] != WitnessVersion {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %d", ErrUnsupportedVersion, frame[4]))
	}
	w := &Witness{Mode: Mode(frame[5])}
	if !w.Mode.Valid() {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %d", ErrUnknownMode, frame[5]))
	}

	targets := []*[]byte{&w.Key, &w.Nonce, &w.AAD, &w.Payload}
	if w.Mode == ModeValidate {
		targets = []*[]byte{&w.Document, &w.Schema}
	}
	rest := frame[witnessHeaderSize:]
	for i, dst := range targets {
		if len(rest) < 4 {
			return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: field %d length", ErrShortFrame, i))
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint64(n) > uint64(len(rest)) {
			return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: field %d declares %d bytes, %d remain", ErrShortFrame, i, n, len(rest)))
		}
		*dst = append([]byte{}, rest[:n]...)
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(rest)))
	}
	return w, nil
}
