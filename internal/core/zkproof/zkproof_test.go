package zkproof

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkreceipt/pkg/types"
)

var (
	sharedOnce  sync.Once
	sharedStore *SetupStore
)

// testStore 进程内可信设置，整个测试包只生成一次
func testStore(t *testing.T) *SetupStore {
	t.Helper()
	sharedOnce.Do(func() {
		sharedStore = NewSetupStore("", nil)
	})
	_, err := sharedStore.Get()
	require.NoError(t, err)
	return sharedStore
}

func testClaim() types.ProofClaim {
	return types.ProofClaim{
		ImageID:       types.DigestOf([]byte("image")),
		JournalDigest: types.DigestOf([]byte("journal")),
	}
}

func proveSeal(t *testing.T, store *SetupStore, claim types.ProofClaim) []byte {
	t.Helper()
	seal, err := NewGroth16Backend("cpu", store, nil).Prove(context.Background(), claim, types.DigestOf([]byte("trace")))
	require.NoError(t, err)
	return seal
}

// ============================================================================
// circuit.go 测试
// ============================================================================

func TestReceiptClaimCircuit_Compile(t *testing.T) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ReceiptClaimCircuit{})
	require.NoError(t, err)
	assert.Equal(t, 5, cs.GetNbPublicVariables()-1)
}

func TestReceiptClaimCircuit_IsSolved(t *testing.T) {
	claim := testClaim()
	trace := types.DigestOf([]byte("trace"))
	blinding := bytes.Repeat([]byte{7}, BlindingSize)
	commitment, err := ComputeCommitment(claim, trace, blinding)
	require.NoError(t, err)

	witness := newFullAssignment(claim, trace, blinding, commitment)
	require.NoError(t, test.IsSolved(&ReceiptClaimCircuit{}, witness, ecc.BN254.ScalarField()))

	wrong := newFullAssignment(claim, trace, blinding, commitment)
	wrong.JournalDigest[1] = new(big.Int).Add(wrong.JournalDigest[1].(*big.Int), big.NewInt(1))
	assert.Error(t, test.IsSolved(&ReceiptClaimCircuit{}, wrong, ecc.BN254.ScalarField()))

	wrongBlinding := newFullAssignment(claim, trace, blinding, commitment)
	wrongBlinding.Blinding = 1
	assert.Error(t, test.IsSolved(&ReceiptClaimCircuit{}, wrongBlinding, ecc.BN254.ScalarField()))
}

func TestComputeCommitment(t *testing.T) {
	claim := testClaim()
	trace := types.DigestOf([]byte("trace"))
	blinding := bytes.Repeat([]byte{1}, BlindingSize)

	a, err := ComputeCommitment(claim, trace, blinding)
	require.NoError(t, err)
	b, err := ComputeCommitment(claim, trace, blinding)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := claim
	other.ImageID[0] ^= 1
	c, err := ComputeCommitment(other, trace, blinding)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

// ============================================================================
// groth16.go 测试
// ============================================================================

func TestGroth16_ProveVerify(t *testing.T) {
	store := testStore(t)
	claim := testClaim()
	seal := proveSeal(t, store, claim)

	verifier := NewGroth16SealVerifier(store)
	require.NoError(t, verifier.VerifySeal(claim, seal))

	// 同一声明的两次证明使用不同盲化因子
	again := proveSeal(t, store, claim)
	assert.NotEqual(t, seal, again)
	require.NoError(t, verifier.VerifySeal(claim, again))
}

func TestGroth16_WrongClaim(t *testing.T) {
	store := testStore(t)
	claim := testClaim()
	seal := proveSeal(t, store, claim)
	verifier := NewGroth16SealVerifier(store)

	wrongJournal := claim
	wrongJournal.JournalDigest[31] ^= 1
	err := verifier.VerifySeal(wrongJournal, seal)
	assert.ErrorIs(t, err, types.ErrVerificationMismatch)
	assert.ErrorIs(t, err, ErrProofRejected)

	wrongImage := claim
	wrongImage.ImageID[0] ^= 0x80
	assert.ErrorIs(t, verifier.VerifySeal(wrongImage, seal), types.ErrVerificationMismatch)
}

func TestGroth16_SealBitFlips(t *testing.T) {
	store := testStore(t)
	claim := testClaim()
	seal := proveSeal(t, store, claim)
	verifier := NewGroth16SealVerifier(store)

	for _, pos := range []int{0, 1, 40, sealHeaderSize, len(seal) / 2, len(seal) - sealChecksumSize - 1, len(seal) - 1} {
		flipped := append([]byte{}, seal...)
		flipped[pos] ^= 0x01
		err := verifier.VerifySeal(claim, flipped)
		assert.ErrorIs(t, err, types.ErrVerificationMismatch, "bit flip at %d", pos)
	}

	assert.ErrorIs(t, verifier.VerifySeal(claim, seal[:len(seal)-1]), types.ErrVerificationMismatch)
	assert.ErrorIs(t, verifier.VerifySeal(claim, nil), types.ErrVerificationMismatch)
}

func TestGroth16_ContextCanceled(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGroth16Backend("cpu", store, nil).Prove(ctx, testClaim(), types.Digest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroth16_BlindingSourceFailure(t *testing.T) {
	b := NewGroth16Backend("cpu", testStore(t), nil)
	b.rand = bytes.NewReader(nil)
	_, err := b.Prove(context.Background(), testClaim(), types.Digest{})
	assert.ErrorIs(t, err, types.ErrBackend)
	assert.True(t, types.IsRetryable(err))
}

// ============================================================================
// seal.go 测试
// ============================================================================

func TestDecodeSeal(t *testing.T) {
	store := testStore(t)
	seal := proveSeal(t, store, testClaim())

	parsed, err := DecodeSeal(seal)
	require.NoError(t, err)
	assert.Equal(t, store.setup.VKHash, parsed.VKHash)

	_, err = DecodeSeal([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidSeal)

	body := append([]byte{}, seal[:len(seal)-sealChecksumSize]...)
	body[0] = 9
	_, err = DecodeSeal(withChecksum(body))
	assert.ErrorIs(t, err, ErrInvalidSeal)

	tampered := append([]byte{}, seal...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = DecodeSeal(tampered)
	assert.ErrorIs(t, err, ErrSealChecksum)
}

func withChecksum(body []byte) []byte {
	sum := types.DigestOf(body)
	return append(body, sum[:]...)
}

// ============================================================================
// setup.go 测试
// ============================================================================

func TestSetupStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	first := NewSetupStore(dir, nil)
	setup, err := first.Get()
	require.NoError(t, err)

	claim := testClaim()
	seal := proveSeal(t, first, claim)

	// 新进程只加载验证密钥
	second := NewSetupStore(dir, nil)
	_, vkHash, err := second.VerifyingKey()
	require.NoError(t, err)
	assert.Equal(t, setup.VKHash, vkHash)
	assert.Nil(t, second.setup)
	require.NoError(t, NewGroth16SealVerifier(second).VerifySeal(claim, seal))

	// 完整加载得到相同密钥
	third := NewSetupStore(dir, nil)
	loaded, err := third.Get()
	require.NoError(t, err)
	assert.Equal(t, setup.VKHash, loaded.VKHash)
}

func TestSetupStore_DifferentKeys(t *testing.T) {
	claim := testClaim()
	seal := proveSeal(t, testStore(t), claim)

	other := NewSetupStore(t.TempDir(), nil)
	_, err := other.Get()
	require.NoError(t, err)
	err = NewGroth16SealVerifier(other).VerifySeal(claim, seal)
	assert.ErrorIs(t, err, types.ErrVerificationMismatch)
	assert.ErrorIs(t, err, ErrVerifyingKeyMismatch)
}

func TestSealVerifier_NotInitialized(t *testing.T) {
	err := NewGroth16SealVerifier(nil).VerifySeal(testClaim(), []byte{1})
	assert.ErrorIs(t, err, ErrVerifierNotInitialized)
	assert.False(t, errors.Is(err, types.ErrVerificationMismatch))
}

func TestSetupStore_VerifyingKeyNeverGenerates(t *testing.T) {
	claim := testClaim()
	seal := proveSeal(t, testStore(t), claim)

	t.Run("空目录", func(t *testing.T) {
		dir := t.TempDir()
		store := NewSetupStore(dir, nil)

		_, _, err := store.VerifyingKey()
		assert.ErrorIs(t, err, ErrVerifierNotInitialized)

		err = NewGroth16SealVerifier(store).VerifySeal(claim, seal)
		assert.ErrorIs(t, err, ErrVerifierNotInitialized)
		assert.False(t, errors.Is(err, types.ErrVerificationMismatch))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Nil(t, store.setup)
	})

	t.Run("仅内存", func(t *testing.T) {
		_, _, err := NewSetupStore("", nil).VerifyingKey()
		assert.ErrorIs(t, err, ErrVerifierNotInitialized)
	})
}

// ============================================================================
// dev.go / accelerator.go / registry.go 测试
// ============================================================================

func TestDevBackend(t *testing.T) {
	claim := testClaim()
	seal, err := DevBackend{}.Prove(context.Background(), claim, types.Digest{})
	require.NoError(t, err)
	assert.Equal(t, claim.Digest().Bytes(), seal)

	require.NoError(t, DevSealVerifier{}.VerifySeal(claim, seal))

	wrong := claim
	wrong.JournalDigest[0] ^= 1
	assert.ErrorIs(t, DevSealVerifier{}.VerifySeal(wrong, seal), types.ErrVerificationMismatch)
}

func TestUnavailableAccelerators(t *testing.T) {
	r := NewDefaultRegistry(testStore(t), nil)

	metal, err := r.Backend("gpu-metal")
	require.NoError(t, err)
	_, err = metal.Prove(context.Background(), testClaim(), types.Digest{})
	assert.ErrorIs(t, err, types.ErrBackend)
	assert.ErrorIs(t, err, ErrAcceleratorUnavailable)
	assert.True(t, types.IsRetryable(err))

	if !IcicleAvailable {
		cuda, err := r.Backend("gpu-cuda")
		require.NoError(t, err)
		_, err = cuda.Prove(context.Background(), testClaim(), types.Digest{})
		assert.ErrorIs(t, err, ErrAcceleratorUnavailable)
	}
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(testStore(t), nil)
	assert.Equal(t, []string{"cpu", "dev", "gpu-cuda", "gpu-metal"}, r.Names())

	_, err := r.Backend("tpu")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	v, ok := r.SealVerifier(types.BackendGroth16BN254)
	require.True(t, ok)
	assert.Equal(t, types.BackendGroth16BN254, v.System())
	_, ok = r.SealVerifier(types.BackendID(9))
	assert.False(t, ok)
}

func TestExportSolidityVerifier(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportSolidityVerifier(testStore(t), &buf))
	src := buf.String()
	assert.Contains(t, src, "pragma solidity")
	assert.Contains(t, src, "function verifyProof(")
	assert.Contains(t, src, "uint256[8] calldata proof")
	assert.Contains(t, src, fmt.Sprintf("uint256[%d] calldata input", NbPublicInputs))
}

// solidityPublicWitness 由 verifyProof 的 input 参数重建公开见证
func solidityPublicWitness(t *testing.T, input [NbPublicInputs]*big.Int) witness.Witness {
	t.Helper()
	assignment := &ReceiptClaimCircuit{
		ImageID:         [2]frontend.Variable{input[0], input[1]},
		JournalDigest:   [2]frontend.Variable{input[2], input[3]},
		Commitment:      input[4],
		ExecutionDigest: [2]frontend.Variable{0, 0},
		Blinding:        0,
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	require.NoError(t, err)
	return w
}

// solidityProof 由 verifyProof 的 proof 参数重建 gnark 证明
func solidityProof(t *testing.T, words [8]*big.Int) *groth16bn254.Proof {
	t.Helper()
	raw := make([]byte, 0, 8*32)
	for _, w := range words {
		raw = append(raw, w.FillBytes(make([]byte, 32))...)
	}
	proof := &groth16bn254.Proof{}
	_, err := proof.Ar.SetBytes(raw[0:64])
	require.NoError(t, err)
	_, err = proof.Bs.SetBytes(raw[64:192])
	require.NoError(t, err)
	_, err = proof.Krs.SetBytes(raw[192:256])
	require.NoError(t, err)
	return proof
}

func TestSolidityArgs(t *testing.T) {
	store := testStore(t)
	claim := testClaim()
	seal := proveSeal(t, store, claim)
	vk, _, err := store.VerifyingKey()
	require.NoError(t, err)

	args, err := SolidityArgs(claim, seal)
	require.NoError(t, err)
	img := limbs(claim.ImageID)
	jd := limbs(claim.JournalDigest)
	assert.Equal(t, 0, img[0].Cmp(args.Input[0]))
	assert.Equal(t, 0, img[1].Cmp(args.Input[1]))
	assert.Equal(t, 0, jd[0].Cmp(args.Input[2]))
	assert.Equal(t, 0, jd[1].Cmp(args.Input[3]))

	// 合约收到的参数足以完成同一个 groth16 验证
	proof := solidityProof(t, args.Proof)
	require.NoError(t, groth16.Verify(proof, vk, solidityPublicWitness(t, args.Input)))

	tampered := args.Input
	tampered[3] = new(big.Int).Add(args.Input[3], big.NewInt(1))
	assert.Error(t, groth16.Verify(proof, vk, solidityPublicWitness(t, tampered)))

	_, err = SolidityArgs(claim, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidSeal)
}
