package zkproof

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// ==================== 收据声明电路 ====================

// ReceiptClaimCircuitID 电路标识
const ReceiptClaimCircuitID = "receipt_claim"

// ReceiptClaimCircuitVersion 电路版本，变更约束时递增（可信设置随之失效）
const ReceiptClaimCircuitVersion = 1

// BlindingSize 承诺盲化因子字节数（31 字节保证小于 BN254 标量域）
const BlindingSize = 31

// ReceiptClaimCircuit 收据声明电路
//
// 🎯 **验证目标**：证明者知道执行摘要与盲化因子，使
//
//	Commitment = MiMC(ImageID.hi, ImageID.lo, JournalDigest.hi, JournalDigest.lo,
//	                  ExecutionDigest.hi, ExecutionDigest.lo, Blinding)
//
// 🏗️ **电路结构**：32 字节摘要拆为高低两个 128 位分量，均小于标量域。
// 全部公开输入都进入哈希，任何一个被替换都会使证明失效。
//
// ⚠️ **信任模型**：电路不执行访客。ExecutionDigest 是宿主提供的私有输入，
// 没有任何约束把它与沙箱中的实际运行联系起来。封印证明的是“持有证明密钥的宿主
// 声明了 (ImageID, JournalDigest)”，而不是“该镜像确实产生了该日志”。
// 持有证明密钥的一方可以为任意日志生成有效封印，验证者必须信任证明方。
type ReceiptClaimCircuit struct {
	// 公开输入（验证者提供）
	ImageID       [2]frontend.Variable `gnark:",public"`
	JournalDigest [2]frontend.Variable `gnark:",public"`
	Commitment    frontend.Variable    `gnark:",public"`

	// 私有输入
	ExecutionDigest [2]frontend.Variable
	Blinding        frontend.Variable
}

// Define 定义电路约束
func (circuit *ReceiptClaimCircuit) Define(api frontend.API) error {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(
		circuit.ImageID[0], circuit.ImageID[1],
		circuit.JournalDigest[0], circuit.JournalDigest[1],
		circuit.ExecutionDigest[0], circuit.ExecutionDigest[1],
		circuit.Blinding,
	)
	api.AssertIsEqual(h.Sum(), circuit.Commitment)
	return nil
}

// limbs 摘要拆分为 (高 128 位, 低 128 位)
func limbs(d types.Digest) [2]*big.Int {
	return [2]*big.Int{
		new(big.Int).SetBytes(d[:16]),
		new(big.Int).SetBytes(d[16:]),
	}
}

// fieldBlock 左侧补零到 32 字节的域元素大端编码
func fieldBlock(b []byte) []byte {
	block := make([]byte, mimc.BlockSize)
	copy(block[len(block)-len(b):], b)
	return block
}

// ComputeCommitment 电路外计算承诺，与 Define 中的哈希一致
func ComputeCommitment(claim types.ProofClaim, trace types.Digest, blinding []byte) (types.Digest, error) {
	h := mimc.NewMiMC()
	blocks := [][]byte{
		claim.ImageID[:16], claim.ImageID[16:],
		claim.JournalDigest[:16], claim.JournalDigest[16:],
		trace[:16], trace[16:],
		blinding,
	}
	for _, b := range blocks {
		if _, err := h.Write(fieldBlock(b)); err != nil {
			return types.Digest{}, err
		}
	}
	var out types.Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}

// newFullAssignment 证明者的完整赋值
func newFullAssignment(claim types.ProofClaim, trace types.Digest, blinding []byte, commitment types.Digest) *ReceiptClaimCircuit {
	assignment := newPublicAssignment(claim, commitment)
	ex := limbs(trace)
	assignment.ExecutionDigest = [2]frontend.Variable{ex[0], ex[1]}
	assignment.Blinding = new(big.Int).SetBytes(blinding)
	return assignment
}

// newPublicAssignment 验证者的公开赋值，私有字段置零
func newPublicAssignment(claim types.ProofClaim, commitment types.Digest) *ReceiptClaimCircuit {
	img := limbs(claim.ImageID)
	jd := limbs(claim.JournalDigest)
	return &ReceiptClaimCircuit{
		ImageID:         [2]frontend.Variable{img[0], img[1]},
		JournalDigest:   [2]frontend.Variable{jd[0], jd[1]},
		Commitment:      new(big.Int).SetBytes(commitment[:]),
		ExecutionDigest: [2]frontend.Variable{0, 0},
		Blinding:        0,
	}
}
