package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestSize 摘要字节长度（SHA-256）
const DigestSize = sha256.Size

// Digest 32字节 SHA-256 摘要
//
// 用于镜像标识（ImageID）、日志摘要（JournalDigest）以及各类输入/输出摘要。
// 文本形式为不带前缀的小写十六进制，解析时兼容 0x 前缀。
type Digest [DigestSize]byte

// ImageID 访客程序镜像标识：镜像字节的 SHA-256
type ImageID = Digest

// DigestOf 对依次拼接的数据计算 SHA-256
func DigestOf(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ParseDigest 从十六进制字符串解析摘要
func ParseDigest(s string) (Digest, error) {
	var d Digest
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest hex: %w", err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("invalid digest length: got %d bytes, want %d", len(raw), DigestSize)
	}
	copy(d[:], raw)
	return d, nil
}

// DigestFromBytes 从原始字节构造摘要，长度必须为32
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("invalid digest length: got %d bytes, want %d", len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// Bytes 返回摘要字节副本
func (d Digest) Bytes() []byte {
	out := make([]byte, DigestSize)
	copy(out, d[:])
	return out
}

// Hex 返回小写十六进制
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// IsZero 是否为全零摘要
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
