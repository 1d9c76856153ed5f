package logic

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// newGCM 校验密钥与 nonce 长度并构造 AEAD
func newGCM(key, nonce []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, types.WrapMalformedWitness("aes_gcm", fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(key)))
	}
	if len(nonce) != NonceSize {
		return nil, types.WrapMalformedWitness("aes_gcm", fmt.Errorf("%w: %d bytes", ErrInvalidNonceLength, len(nonce)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.WrapMalformedWitness("aes_gcm", err)
	}
	return cipher.NewGCM(block)
}

// runEncryption 执行加密或解密并生成日志
//
// 解密标签校验失败是被报告的结果（success=false，输出不公开），不是错误。
func runEncryption(w *Witness) (*Outcome, error) {
	aead, err := newGCM(w.Key, w.Nonce)
	if err != nil {
		return nil, err
	}

	j := &Journal{Mode: w.Mode}
	copy(j.Nonce[:], w.Nonce)
	j.InputDigest = types.DigestOf(w.AAD, w.Payload)

	var output []byte
	if w.Mode == ModeEncrypt {
		output = aead.Seal(nil, w.Nonce, w.Payload, w.AAD)
	} else {
		plain, openErr := aead.Open(nil, w.Nonce, w.Payload, w.AAD)
		if openErr != nil {
			return &Outcome{Journal: j}, nil
		}
		output = plain
	}
	j.Success = true
	j.OutputDigest = types.DigestOf(w.AAD, output)
	return &Outcome{Journal: j, Output: output}, nil
}
