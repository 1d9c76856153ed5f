package verifier

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verifierconfig "github.com/weisyn/zkreceipt/internal/config/verifier"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

var (
	setupOnce sync.Once
	registry  *zkproof.Registry
)

func testRegistry() *zkproof.Registry {
	setupOnce.Do(func() {
		registry = zkproof.NewDefaultRegistry(zkproof.NewSetupStore("", nil), nil)
	})
	return registry
}

func journalFor(t *testing.T) []byte {
	t.Helper()
	out, err := logic.Execute(&logic.Witness{Mode: logic.ModeEncrypt, Key: make([]byte, 16), Nonce: make([]byte, 12), Payload: []byte("hi")})
	require.NoError(t, err)
	return out.Journal.Encode()
}

// makeReceipt 直接调用后端生成收据，不经过沙箱
func makeReceipt(t *testing.T, backend string) (*types.Receipt, types.ImageID) {
	t.Helper()
	image := types.NativeImage("zkguest").ID()
	journal := journalFor(t)
	b, err := testRegistry().Backend(backend)
	require.NoError(t, err)
	seal, err := b.Prove(context.Background(), types.ProofClaim{ImageID: image, JournalDigest: logic.JournalDigest(journal)}, types.DigestOf(journal))
	require.NoError(t, err)
	return types.NewReceipt(seal, journal, types.ReceiptMetadata{ImageID: image, BackendID: b.System()}), image
}

func TestVerify_Groth16(t *testing.T) {
	v := New(testRegistry(), nil, nil, nil)
	r, image := makeReceipt(t, "cpu")
	ctx := context.Background()

	result, err := v.Verify(ctx, r, types.NewClaim(image, logic.JournalDigest(r.Journal())))
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Reason)
	assert.Nil(t, result.Journal)

	// 只固定镜像时交还日志
	result, err = v.Verify(ctx, r, types.ClaimForImage(image))
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, r.Journal(), result.Journal)
}

// TestVerify_AttestsHostClaim groth16 封印只绑定宿主声明的 (镜像, 日志摘要)：
// 未经任何访客执行、由证明方直接构造的日志同样验证通过。
func TestVerify_AttestsHostClaim(t *testing.T) {
	image := types.NativeImage("zkguest").ID()
	journal := (&logic.Journal{
		Mode:         logic.ModeDecrypt,
		Success:      true,
		InputDigest:  types.DigestOf([]byte("never decrypted")),
		OutputDigest: types.DigestOf([]byte("made up")),
	}).Encode()

	b, err := testRegistry().Backend("cpu")
	require.NoError(t, err)
	seal, err := b.Prove(context.Background(), types.ProofClaim{ImageID: image, JournalDigest: logic.JournalDigest(journal)}, types.Digest{})
	require.NoError(t, err)
	r := types.NewReceipt(seal, journal, types.ReceiptMetadata{ImageID: image, BackendID: b.System()})

	result, err := New(testRegistry(), nil, nil, nil).Verify(context.Background(), r, types.NewClaim(image, logic.JournalDigest(journal)))
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Reason)
}

func TestVerify_WrongDigest(t *testing.T) {
	v := New(testRegistry(), nil, nil, nil)
	r, image := makeReceipt(t, "cpu")

	wrong := logic.JournalDigest(r.Journal())
	wrong[0] ^= 1
	result, err := v.Verify(context.Background(), r, types.NewClaim(image, wrong))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonJournalMismatch, result.Reason)

	otherImage := types.DigestOf([]byte("other"))
	result, err = v.Verify(context.Background(), r, types.ClaimForImage(otherImage))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonImageMismatch, result.Reason)
}

func TestVerify_BitFlips(t *testing.T) {
	v := New(testRegistry(), nil, nil, nil)
	r, image := makeReceipt(t, "cpu")
	ctx := context.Background()

	seal := r.Seal()
	for _, pos := range []int{0, len(seal) / 3, len(seal) - 1} {
		flipped := append([]byte{}, seal...)
		flipped[pos] ^= 0x04
		tampered := types.NewReceipt(flipped, r.Journal(), r.Metadata())
		assert.False(t, v.VerifyBool(ctx, tampered, types.ClaimForImage(image)), "seal bit %d", pos)
	}

	// 日志翻转：声明固定摘要时在第 2 步失败，只固定镜像时在封印处失败
	journal := r.Journal()
	journal[len(journal)-1] ^= 0x01
	tampered := types.NewReceipt(r.Seal(), journal, r.Metadata())
	assert.False(t, v.VerifyBool(ctx, tampered, types.NewClaim(image, logic.JournalDigest(r.Journal()))))

	result, err := v.Verify(ctx, tampered, types.ClaimForImage(image))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, ReasonSealMismatch)
}

func TestVerify_DevReceipts(t *testing.T) {
	r, image := makeReceipt(t, "dev")
	claim := types.NewClaim(image, logic.JournalDigest(r.Journal()))

	strict := New(testRegistry(), &verifierconfig.VerifierOptions{AllowDev: false}, nil, nil)
	result, err := strict.Verify(context.Background(), r, claim)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonDevNotAllowed, result.Reason)

	lenient := New(testRegistry(), &verifierconfig.VerifierOptions{AllowDev: true}, nil, nil)
	assert.True(t, lenient.VerifyBool(context.Background(), r, claim))

	// dev 封印不能冒充 groth16
	forged := types.NewReceipt(r.Seal(), r.Journal(), types.ReceiptMetadata{ImageID: image, BackendID: types.BackendGroth16BN254})
	assert.False(t, lenient.VerifyBool(context.Background(), forged, claim))
}

func TestVerify_UnknownBackend(t *testing.T) {
	r, image := makeReceipt(t, "dev")
	odd := types.NewReceipt(r.Seal(), r.Journal(), types.ReceiptMetadata{ImageID: image, BackendID: 7})
	result, err := New(testRegistry(), nil, nil, nil).Verify(context.Background(), odd, types.ClaimForImage(image))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, ReasonUnknownBackend)
}

func TestVerify_NoRegistry(t *testing.T) {
	r, image := makeReceipt(t, "cpu")
	_, err := New(nil, nil, nil, nil).Verify(context.Background(), r, types.ClaimForImage(image))
	assert.ErrorIs(t, err, zkproof.ErrVerifierNotInitialized)

	result, err := New(nil, nil, nil, nil).Verify(context.Background(), nil, types.ClaimForImage(image))
	require.NoError(t, err)
	assert.Equal(t, ReasonNilReceipt, result.Reason)
}

func TestVerify_MissingVerifyingKey(t *testing.T) {
	r, image := makeReceipt(t, "cpu")
	dir := t.TempDir()
	fresh := zkproof.NewDefaultRegistry(zkproof.NewSetupStore(dir, nil), nil)

	result, err := New(fresh, nil, nil, nil).Verify(context.Background(), r, types.ClaimForImage(image))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, zkproof.ErrVerifierNotInitialized)
	assert.False(t, errors.Is(err, types.ErrVerificationMismatch))

	// 验证从不生成可信设置
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheck(t *testing.T) {
	v := New(testRegistry(), nil, nil, nil)
	r, image := makeReceipt(t, "cpu")
	wrong := types.DigestOf([]byte("nope"))
	_, err := v.Check(context.Background(), r, types.NewClaim(image, wrong))
	assert.ErrorIs(t, err, types.ErrVerificationMismatch)
	assert.Equal(t, types.ExitVerificationMismatch, types.ExitCodeFor(err))

	_, err = v.Check(context.Background(), r, types.ClaimForImage(image))
	assert.NoError(t, err)
}

func TestVerify_Concurrent(t *testing.T) {
	v := New(testRegistry(), nil, nil, nil)
	r, image := makeReceipt(t, "cpu")
	claim := types.NewClaim(image, logic.JournalDigest(r.Journal()))

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = v.VerifyBool(context.Background(), r, claim)
		}(i)
	}
	wg.Wait()
	for _, ok := range results {
		assert.True(t, ok)
	}
}
