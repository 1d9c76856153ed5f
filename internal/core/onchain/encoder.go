// Package onchain 提供收据的链上验证调用编码
//
// 两种调用格式：
//   - 路由格式 verify(bytes seal, bytes32 imageId, bytes32 journalDigest)，
//     seal = 4 字节验证器选择子 || 后端封印；选择子为
//     keccak256(证明系统标签 || 封印布局版本) 的前 4 字节，dev 收据使用全零选择子。
//     路由合约按选择子分发到各证明系统的验证器，本仓库不提供路由合约源码。
//   - 导出合约格式 verifyProof(uint256[8] proof, uint256[5] input)，
//     直接调用 export-verifier 生成的 groth16 验证合约。
package onchain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// VerifierABI 验证路由合约接口
const VerifierABI = `[
  {
    "type": "function",
    "name": "verify",
    "stateMutability": "view",
    "inputs": [
      {"name": "seal", "type": "bytes"},
      {"name": "imageId", "type": "bytes32"},
      {"name": "journalDigest", "type": "bytes32"}
    ],
    "outputs": []
  }
]`

const verifyMethod = "verify"

// SelectorSize 选择子字节数
const SelectorSize = 4

var (
	// ErrUnknownBackend 无法为该证明系统编码
	ErrUnknownBackend = errors.New("no on-chain selector for backend")

	// ErrBadCalldata 调用数据无法解析
	ErrBadCalldata = errors.New("malformed verify calldata")
)

var verifierABI = mustParseABI(VerifierABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("解析验证合约 ABI 失败: %v", err))
	}
	return parsed
}

// Selector 证明系统的验证器选择子
func Selector(backend types.BackendID) ([SelectorSize]byte, error) {
	var sel [SelectorSize]byte
	switch backend {
	case types.BackendDev:
		return sel, nil
	case types.BackendGroth16BN254:
		h := crypto.Keccak256([]byte(backend.String()), []byte{zkproof.SealVersion})
		copy(sel[:], h[:SelectorSize])
		return sel, nil
	default:
		return sel, types.WrapEncodingError("selector", fmt.Errorf("%w: %s", ErrUnknownBackend, backend))
	}
}

// EncodeSeal 选择子 || 封印
func EncodeSeal(receipt *types.Receipt) ([]byte, error) {
	if receipt == nil {
		return nil, types.WrapEncodingError("encode_seal", errors.New("nil receipt"))
	}
	sel, err := Selector(receipt.BackendID())
	if err != nil {
		return nil, err
	}
	seal := receipt.Seal()
	out := make([]byte, 0, SelectorSize+len(seal))
	out = append(out, sel[:]...)
	return append(out, seal...), nil
}

// Encode 生成 verify 调用数据
func Encode(receipt *types.Receipt) ([]byte, error) {
	seal, err := EncodeSeal(receipt)
	if err != nil {
		return nil, err
	}
	data, err := verifierABI.Pack(verifyMethod, seal, [32]byte(receipt.ImageID()), [32]byte(receipt.JournalDigest()))
	if err != nil {
		return nil, types.WrapEncodingError("pack", err)
	}
	return data, nil
}

// EncodeJournalCall 日志的 abi.encode(bytes) 形式
func EncodeJournalCall(journal []byte) ([]byte, error) {
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		return nil, types.WrapEncodingError("journal_type", err)
	}
	data, err := abi.Arguments{{Type: bytesType}}.Pack(journal)
	if err != nil {
		return nil, types.WrapEncodingError("pack_journal", err)
	}
	return data, nil
}

// Call 解析后的 verify 调用
type Call struct {
	Selector      [SelectorSize]byte
	Seal          []byte // 不含选择子
	ImageID       types.ImageID
	JournalDigest types.Digest
}

// DecodeCalldata 解析 verify 调用数据
func DecodeCalldata(data []byte) (*Call, error) {
	const op = "decode_calldata"
	method := verifierABI.Methods[verifyMethod]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: method id", ErrBadCalldata))
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %v", ErrBadCalldata, err))
	}
	if len(values) != 3 {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %d arguments", ErrBadCalldata, len(values)))
	}
	seal, ok1 := values[0].([]byte)
	image, ok2 := values[1].([32]byte)
	digest, ok3 := values[2].([32]byte)
	if !ok1 || !ok2 || !ok3 || len(seal) < SelectorSize {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: argument types", ErrBadCalldata))
	}

	call := &Call{ImageID: image, JournalDigest: digest, Seal: seal[SelectorSize:]}
	copy(call.Selector[:], seal[:SelectorSize])
	return call, nil
}

// BackendForSelector 由选择子反查证明系统
func BackendForSelector(sel [SelectorSize]byte) (types.BackendID, bool) {
	for _, id := range []types.BackendID{types.BackendDev, types.BackendGroth16BN254} {
		if s, err := Selector(id); err == nil && s == sel {
			return id, true
		}
	}
	return 0, false
}
