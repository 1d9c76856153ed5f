package zkproof

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// SealVersion groth16 封印布局版本
const SealVersion byte = 1

const (
	sealHeaderSize   = 1 + 32 + 32 // version || vk_hash || commitment
	sealChecksumSize = sha256.Size
)

// Groth16Seal 解析后的 groth16 封印
//
// 布局：version(1) || vk_hash(32) || commitment(32) || proof || sha256(前述全部字节)
type Groth16Seal struct {
	VKHash     types.Digest
	Commitment types.Digest
	Proof      groth16.Proof
}

// EncodeSeal 编码封印
func EncodeSeal(vkHash, commitment types.Digest, proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(SealVersion)
	buf.Write(vkHash[:])
	buf.Write(commitment[:])
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("序列化证明失败: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// DecodeSeal 解析封印；任何格式问题返回 ErrInvalidSeal 或 ErrSealChecksum
func DecodeSeal(seal []byte) (*Groth16Seal, error) {
	if len(seal) < sealHeaderSize+sealChecksumSize+1 {
		return nil, WrapInvalidSealError(fmt.Sprintf("seal too short: %d bytes", len(seal)))
	}
	body := seal[:len(seal)-sealChecksumSize]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], seal[len(body):]) {
		return nil, ErrSealChecksum
	}
	if body[0] != SealVersion {
		return nil, WrapInvalidSealError(fmt.Sprintf("unsupported seal version %d", body[0]))
	}

	out := &Groth16Seal{}
	copy(out.VKHash[:], body[1:33])
	copy(out.Commitment[:], body[33:65])

	proofBytes := body[sealHeaderSize:]
	proof := groth16.NewProof(ecc.BN254)
	n, err := proof.ReadFrom(bytes.NewReader(proofBytes))
	if err != nil {
		return nil, WrapInvalidSealError(fmt.Sprintf("decode proof: %v", err))
	}
	if int(n) != len(proofBytes) {
		return nil, WrapInvalidSealError("trailing bytes after proof")
	}
	out.Proof = proof
	return out, nil
}
