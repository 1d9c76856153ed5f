package onchain

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Groth16VerifierABI export-verifier 导出合约的验证入口
//
// 合约回滚即验证不通过，无返回值。
const Groth16VerifierABI = `[
  {
    "type": "function",
    "name": "verifyProof",
    "stateMutability": "view",
    "inputs": [
      {"name": "proof", "type": "uint256[8]"},
      {"name": "input", "type": "uint256[5]"}
    ],
    "outputs": []
  }
]`

const verifyProofMethod = "verifyProof"

// ErrNoContractVerifier 该证明系统没有可直接调用的验证合约
var ErrNoContractVerifier = errors.New("no exported verifier contract for backend")

var groth16VerifierABI = mustParseABI(Groth16VerifierABI)

// EncodeVerifyProof 生成导出合约 verifyProof 的调用数据
//
// 公开输入取自收据本身（镜像标识、日志摘要）与封印中的承诺。只有 groth16 收据可编码。
func EncodeVerifyProof(receipt *types.Receipt) ([]byte, error) {
	const op = "encode_verify_proof"
	if receipt == nil {
		return nil, types.WrapEncodingError(op, errors.New("nil receipt"))
	}
	if receipt.BackendID() != types.BackendGroth16BN254 {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %s", ErrNoContractVerifier, receipt.BackendID()))
	}
	claim := types.ProofClaim{ImageID: receipt.ImageID(), JournalDigest: receipt.JournalDigest()}
	args, err := zkproof.SolidityArgs(claim, receipt.Seal())
	if err != nil {
		return nil, types.WrapEncodingError(op, err)
	}
	data, err := groth16VerifierABI.Pack(verifyProofMethod, args.Proof, args.Input)
	if err != nil {
		return nil, types.WrapEncodingError("pack", err)
	}
	return data, nil
}

// DecodeVerifyProof 解析 verifyProof 调用数据
func DecodeVerifyProof(data []byte) (*zkproof.SolidityProof, error) {
	const op = "decode_verify_proof"
	method := groth16VerifierABI.Methods[verifyProofMethod]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: method id", ErrBadCalldata))
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %v", ErrBadCalldata, err))
	}
	if len(values) != 2 {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: %d arguments", ErrBadCalldata, len(values)))
	}
	proof, ok1 := values[0].([8]*big.Int)
	input, ok2 := values[1].([zkproof.NbPublicInputs]*big.Int)
	if !ok1 || !ok2 {
		return nil, types.WrapEncodingError(op, fmt.Errorf("%w: argument types", ErrBadCalldata))
	}
	return &zkproof.SolidityProof{Proof: proof, Input: input}, nil
}
