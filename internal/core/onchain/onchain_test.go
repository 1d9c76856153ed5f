package onchain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onchainconfig "github.com/weisyn/zkreceipt/internal/config/onchain"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

func devReceipt(journal []byte) *types.Receipt {
	image := types.DigestOf([]byte("image"))
	claim := types.ProofClaim{ImageID: image, JournalDigest: types.DigestOf(journal)}
	return types.NewReceipt(claim.Digest().Bytes(), journal, types.ReceiptMetadata{ImageID: image, BackendID: types.BackendDev})
}

func TestSelector(t *testing.T) {
	dev, err := Selector(types.BackendDev)
	require.NoError(t, err)
	assert.Equal(t, [SelectorSize]byte{}, dev)

	g, err := Selector(types.BackendGroth16BN254)
	require.NoError(t, err)
	want := crypto.Keccak256([]byte("groth16-bn254"), []byte{1})
	assert.Equal(t, want[:4], g[:])

	_, err = Selector(types.BackendID(9))
	assert.ErrorIs(t, err, types.ErrEncoding)
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Equal(t, types.ExitEncodingError, types.ExitCodeFor(err))

	id, ok := BackendForSelector(g)
	assert.True(t, ok)
	assert.Equal(t, types.BackendGroth16BN254, id)
	_, ok = BackendForSelector([SelectorSize]byte{1, 2, 3, 4})
	assert.False(t, ok)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := devReceipt([]byte("journal"))
	data, err := Encode(r)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("verify(bytes,bytes32,bytes32)"))[:4], data[:4])

	call, err := DecodeCalldata(data)
	require.NoError(t, err)
	assert.Equal(t, r.Seal(), call.Seal)
	assert.Equal(t, r.ImageID(), call.ImageID)
	assert.Equal(t, r.JournalDigest(), call.JournalDigest)
	assert.Equal(t, [SelectorSize]byte{}, call.Selector)
}

func TestEncodeUnknownBackend(t *testing.T) {
	r := types.NewReceipt([]byte{1}, []byte("j"), types.ReceiptMetadata{BackendID: types.BackendID(7)})
	_, err := Encode(r)
	assert.ErrorIs(t, err, types.ErrEncoding)

	_, err = Encode(nil)
	assert.ErrorIs(t, err, types.ErrEncoding)
}

func TestDecodeCalldataErrors(t *testing.T) {
	good, err := Encode(devReceipt([]byte("j")))
	require.NoError(t, err)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"method":    append([]byte{0, 0, 0, 0}, good[4:]...),
		"truncated": good[:40],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCalldata(data)
			assert.ErrorIs(t, err, types.ErrEncoding)
			assert.ErrorIs(t, err, ErrBadCalldata)
		})
	}
}

func TestEncodeJournalCall(t *testing.T) {
	data, err := EncodeJournalCall([]byte("hi"))
	require.NoError(t, err)
	// offset(32) | length(32) | 数据右补零(32)
	require.Len(t, data, 96)
	assert.Equal(t, byte(0x20), data[31])
	assert.Equal(t, byte(2), data[63])
	assert.Equal(t, []byte("hi"), data[64:66])
}

type revertError struct{}

func (revertError) Error() string          { return "execution reverted" }
func (revertError) ErrorData() interface{} { return "0x" }

// devRouter 模拟只接受 dev 封印的链上路由合约
type devRouter struct {
	calls int
	fail  error
}

func (r *devRouter) CallContract(_ context.Context, msg gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	r.calls++
	if r.fail != nil {
		return nil, r.fail
	}
	call, err := DecodeCalldata(msg.Data)
	if err != nil {
		return nil, revertError{}
	}
	claim := types.ProofClaim{ImageID: call.ImageID, JournalDigest: call.JournalDigest}
	if call.Selector != ([SelectorSize]byte{}) || !bytes.Equal(call.Seal, claim.Digest().Bytes()) {
		return nil, revertError{}
	}
	return nil, nil
}

func TestVerifyOnChain(t *testing.T) {
	router := &devRouter{}
	client := NewClient(router, nil)
	contract := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	ok, err := client.VerifyOnChain(context.Background(), contract, devReceipt([]byte("journal")))
	require.NoError(t, err)
	assert.True(t, ok)

	forged := types.NewReceipt(make([]byte, 32), []byte("journal"), types.ReceiptMetadata{BackendID: types.BackendDev})
	ok, err = client.VerifyOnChain(context.Background(), contract, forged)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, router.calls)
}

func TestVerifyOnChainTransportError(t *testing.T) {
	client := NewClient(&devRouter{fail: errors.New("connection refused")}, nil)
	ok, err := client.VerifyOnChain(context.Background(), common.Address{}, devReceipt([]byte("j")))
	assert.Error(t, err)
	assert.False(t, ok)

	_, err = client.Verify(context.Background(), devReceipt([]byte("j")))
	assert.Error(t, err, "no contract address configured")
}

var (
	groth16Once    sync.Once
	groth16Setup   *zkproof.SetupStore
	groth16Receipt *types.Receipt
	groth16Err     error
)

// provedReceipt 进程内可信设置下的 groth16 收据（整个测试包只证明一次）
func provedReceipt(t *testing.T) (*types.Receipt, *zkproof.SetupStore) {
	t.Helper()
	groth16Once.Do(func() {
		groth16Setup = zkproof.NewSetupStore("", nil)
		journal := []byte("journal")
		image := types.DigestOf([]byte("image"))
		claim := types.ProofClaim{ImageID: image, JournalDigest: types.DigestOf(journal)}
		var seal []byte
		seal, groth16Err = zkproof.NewGroth16Backend("cpu", groth16Setup, nil).Prove(context.Background(), claim, types.DigestOf([]byte("trace")))
		groth16Receipt = types.NewReceipt(seal, journal, types.ReceiptMetadata{ImageID: image, BackendID: types.BackendGroth16BN254})
	})
	require.NoError(t, groth16Err)
	return groth16Receipt, groth16Setup
}

func TestEncodeVerifyProof(t *testing.T) {
	r, setup := provedReceipt(t)

	data, err := EncodeVerifyProof(r)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("verifyProof(uint256[8],uint256[5])"))[:4], data[:4])
	// 方法 ID + 13 个静态字
	assert.Len(t, data, 4+13*32)

	decoded, err := DecodeVerifyProof(data)
	require.NoError(t, err)
	want, err := zkproof.SolidityArgs(types.ProofClaim{ImageID: r.ImageID(), JournalDigest: r.JournalDigest()}, r.Seal())
	require.NoError(t, err)
	assert.Equal(t, want.Proof, decoded.Proof)
	assert.Equal(t, want.Input, decoded.Input)

	// 导出合约的入口与上面的 ABI 一致
	var src bytes.Buffer
	require.NoError(t, zkproof.ExportSolidityVerifier(setup, &src))
	assert.Contains(t, src.String(), "function verifyProof(")
	assert.Contains(t, src.String(), "uint256[8] calldata proof")
	assert.Contains(t, src.String(), "uint256[5] calldata input")

	calldata, err := CalldataFor(r)
	require.NoError(t, err)
	assert.Equal(t, data, calldata)
}

func TestEncodeVerifyProofErrors(t *testing.T) {
	_, err := EncodeVerifyProof(devReceipt([]byte("j")))
	assert.ErrorIs(t, err, types.ErrEncoding)
	assert.ErrorIs(t, err, ErrNoContractVerifier)

	broken := types.NewReceipt([]byte{1, 2, 3}, []byte("j"), types.ReceiptMetadata{BackendID: types.BackendGroth16BN254})
	_, err = EncodeVerifyProof(broken)
	assert.ErrorIs(t, err, types.ErrEncoding)
	assert.ErrorIs(t, err, zkproof.ErrInvalidSeal)

	_, err = DecodeVerifyProof([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrBadCalldata)
}

// exportedVerifier 模拟导出合约：按 verifyProof 解析并比对期望的公开输入
type exportedVerifier struct {
	input [zkproof.NbPublicInputs]*big.Int
}

func (v *exportedVerifier) CallContract(_ context.Context, msg gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	args, err := DecodeVerifyProof(msg.Data)
	if err != nil {
		return nil, revertError{}
	}
	for i := range args.Input {
		if args.Input[i].Cmp(v.input[i]) != 0 {
			return nil, revertError{}
		}
	}
	return nil, nil
}

func TestVerifyOnChainGroth16(t *testing.T) {
	r, _ := provedReceipt(t)
	args, err := zkproof.SolidityArgs(types.ProofClaim{ImageID: r.ImageID(), JournalDigest: r.JournalDigest()}, r.Seal())
	require.NoError(t, err)

	client := NewClient(&exportedVerifier{input: args.Input}, nil)
	contract := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	ok, err := client.VerifyOnChain(context.Background(), contract, r)
	require.NoError(t, err)
	assert.True(t, ok)

	other := types.NewReceipt(r.Seal(), []byte("other journal"), r.Metadata())
	ok, err = client.VerifyOnChain(context.Background(), contract, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDialRequiresRPC(t *testing.T) {
	_, err := Dial(context.Background(), &onchainconfig.OnChainOptions{}, nil)
	assert.Error(t, err)
}
