package zkproof

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// NbPublicInputs 收据声明电路的公开输入个数
//
// 顺序与 ReceiptClaimCircuit 字段一致：ImageID.hi, ImageID.lo,
// JournalDigest.hi, JournalDigest.lo, Commitment。
const NbPublicInputs = 5

// ExportSolidityVerifier 为当前验证密钥导出 gnark 生成的 Solidity 验证合约
//
// 属于证明方的部署操作：目录中没有密钥时经 Get 生成并持久化。
// 导出的合约入口为 verifyProof(uint256[8] proof, uint256[5] input)，参数由 SolidityArgs 给出。
func ExportSolidityVerifier(setup *SetupStore, w io.Writer) error {
	ts, err := setup.Get()
	if err != nil {
		return err
	}
	if err := ts.VerifyingKey.ExportSolidity(w); err != nil {
		return fmt.Errorf("导出 Solidity 验证合约失败: %w", err)
	}
	return nil
}

// SolidityProof 导出合约 verifyProof 的参数
type SolidityProof struct {
	Proof [8]*big.Int              // A, B, C 的 EIP-197 未压缩坐标
	Input [NbPublicInputs]*big.Int // 公开输入
}

// SolidityArgs 由封印与声明构造 verifyProof 参数
//
// 只做格式转换，不验证证明；封印无法解析时返回 ErrInvalidSeal。
func SolidityArgs(claim types.ProofClaim, seal []byte) (*SolidityProof, error) {
	parsed, err := DecodeSeal(seal)
	if err != nil {
		return nil, err
	}
	proof, ok := parsed.Proof.(*groth16bn254.Proof)
	if !ok {
		return nil, WrapInvalidSealError(fmt.Sprintf("unexpected proof type %T", parsed.Proof))
	}
	raw := proof.MarshalSolidity()
	if len(raw) != 8*fr.Bytes {
		return nil, WrapInvalidSealError(fmt.Sprintf("solidity proof is %d bytes", len(raw)))
	}

	out := &SolidityProof{}
	for i := range out.Proof {
		out.Proof[i] = new(big.Int).SetBytes(raw[i*fr.Bytes : (i+1)*fr.Bytes])
	}
	img := limbs(claim.ImageID)
	jd := limbs(claim.JournalDigest)
	out.Input = [NbPublicInputs]*big.Int{img[0], img[1], jd[0], jd[1], new(big.Int).SetBytes(parsed.Commitment[:])}
	return out, nil
}
