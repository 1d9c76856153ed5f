package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BackendID 证明系统标识
//
// 封印（seal）格式只取决于证明系统，与加速器（CPU/GPU）无关，
// 因此 cpu 与 gpu-cuda 生成的收据可以互换。
type BackendID uint8

const (
	// BackendDev 开发模式伪收据：封印为声明摘要，不具备密码学可靠性
	BackendDev BackendID = 0
	// BackendGroth16BN254 Groth16 / BN254 简洁证明
	BackendGroth16BN254 BackendID = 1
)

// String 返回证明系统标签
func (b BackendID) String() string {
	switch b {
	case BackendDev:
		return "dev"
	case BackendGroth16BN254:
		return "groth16-bn254"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(b))
	}
}

// Known 是否为本构建识别的证明系统
func (b BackendID) Known() bool {
	return b == BackendDev || b == BackendGroth16BN254
}

// ReceiptMetadata 收据元数据
type ReceiptMetadata struct {
	ImageID   ImageID   // 访客镜像标识
	BackendID BackendID // 生成封印的证明系统
}

// 收据二进制格式
//
//	magic "ZKR1" | version u8 | backend-id u8 | image-id [32] |
//	u32 seal 长度 | seal | u32 journal 长度 | journal
const (
	receiptMagic   = "ZKR1"
	ReceiptVersion = 1

	receiptHeaderSize = len(receiptMagic) + 1 + 1 + DigestSize
)

// Receipt 计算收据
//
// 🎯 **组成**：
// - Seal：不透明的证明字节，只由对应证明系统的验证器解析
// - Journal：访客提交的公开日志（固定布局字节）
// - Metadata：镜像标识与证明系统标识
//
// 收据在证明运行结束时一次性生成，之后不可变；所有访问器返回副本。
type Receipt struct {
	seal    []byte
	journal []byte
	meta    ReceiptMetadata
}

// NewReceipt 创建收据（拷贝输入）
func NewReceipt(seal, journal []byte, meta ReceiptMetadata) *Receipt {
	return &Receipt{
		seal:    cloneBytes(seal),
		journal: cloneBytes(journal),
		meta:    meta,
	}
}

// Seal 返回封印副本
func (r *Receipt) Seal() []byte { return cloneBytes(r.seal) }

// Journal 返回日志副本
func (r *Receipt) Journal() []byte { return cloneBytes(r.journal) }

// Metadata 返回元数据
func (r *Receipt) Metadata() ReceiptMetadata { return r.meta }

// ImageID 返回镜像标识
func (r *Receipt) ImageID() ImageID { return r.meta.ImageID }

// BackendID 返回证明系统标识
func (r *Receipt) BackendID() BackendID { return r.meta.BackendID }

// JournalDigest 返回 sha256(journal)
func (r *Receipt) JournalDigest() Digest { return DigestOf(r.journal) }

// ID 收据内容标识：二进制编码的 SHA-256
//
// 日志与镜像相同、封印相同的收据得到相同的 ID。
func (r *Receipt) ID() Digest {
	return DigestOf(r.MarshalBinary())
}

// Equal 逐字节比较两个收据
func (r *Receipt) Equal(other *Receipt) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.meta == other.meta &&
		bytes.Equal(r.seal, other.seal) &&
		bytes.Equal(r.journal, other.journal)
}

// MarshalBinary 编码为收据二进制格式
func (r *Receipt) MarshalBinary() []byte {
	out := make([]byte, 0, receiptHeaderSize+8+len(r.seal)+len(r.journal))
	out = append(out, receiptMagic...)
	out = append(out, ReceiptVersion, byte(r.meta.BackendID))
	out = append(out, r.meta.ImageID[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(r.seal)))
	out = append(out, r.seal...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(r.journal)))
	out = append(out, r.journal...)
	return out
}

// DecodeReceipt 解析收据二进制格式
//
// 截断、多余尾随字节、未知版本均返回 ErrEncoding。
func DecodeReceipt(data []byte) (*Receipt, error) {
	const op = "decode_receipt"
	if len(data) < receiptHeaderSize {
		return nil, WrapEncodingError(op, fmt.Errorf("receipt too short: %d bytes", len(data)))
	}
	if string(data[:4]) != receiptMagic {
		return nil, WrapEncodingError(op, fmt.Errorf("bad receipt magic %q", data[:4]))
	}
	if data[4] != ReceiptVersion {
		return nil, WrapEncodingError(op, fmt.Errorf("unsupported receipt version %d", data[4]))
	}
	meta := ReceiptMetadata{BackendID: BackendID(data[5])}
	copy(meta.ImageID[:], data[6:receiptHeaderSize])

	rest := data[receiptHeaderSize:]
	seal, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, WrapEncodingError(op, fmt.Errorf("seal: %w", err))
	}
	journal, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, WrapEncodingError(op, fmt.Errorf("journal: %w", err))
	}
	if len(rest) != 0 {
		return nil, WrapEncodingError(op, fmt.Errorf("%d trailing bytes", len(rest)))
	}
	return NewReceipt(seal, journal, meta), nil
}

func readLengthPrefixed(b []byte) (field, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("short length prefix")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, len(b))
	}
	return b[:n], b[n:], nil
}

// receiptJSON 收据的 JSON 表示（文件与 HTTP 使用）
type receiptJSON struct {
	Version   uint8  `json:"version"`
	BackendID uint8  `json:"backend_id"`
	Backend   string `json:"backend,omitempty"`
	ImageID   Digest `json:"image_id"`
	Seal      string `json:"seal"`
	Journal   string `json:"journal"`
}

// MarshalJSON 实现 json.Marshaler
func (r *Receipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(receiptJSON{
		Version:   ReceiptVersion,
		BackendID: uint8(r.meta.BackendID),
		Backend:   r.meta.BackendID.String(),
		ImageID:   r.meta.ImageID,
		Seal:      hex.EncodeToString(r.seal),
		Journal:   hex.EncodeToString(r.journal),
	})
}

// UnmarshalJSON 实现 json.Unmarshaler
func (r *Receipt) UnmarshalJSON(data []byte) error {
	const op = "decode_receipt_json"
	var raw receiptJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return WrapEncodingError(op, err)
	}
	if raw.Version != ReceiptVersion {
		return WrapEncodingError(op, fmt.Errorf("unsupported receipt version %d", raw.Version))
	}
	seal, err := hex.DecodeString(trimHexPrefix(raw.Seal))
	if err != nil {
		return WrapEncodingError(op, fmt.Errorf("seal: %w", err))
	}
	journal, err := hex.DecodeString(trimHexPrefix(raw.Journal))
	if err != nil {
		return WrapEncodingError(op, fmt.Errorf("journal: %w", err))
	}
	r.seal = seal
	r.journal = journal
	r.meta = ReceiptMetadata{ImageID: raw.ImageID, BackendID: BackendID(raw.BackendID)}
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
