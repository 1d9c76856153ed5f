package logic

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/zkreceipt/pkg/types"
)

func mustType(t *testing.T, name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	require.NoError(t, err)
	return typ
}

func sampleEncryptionJournal() *Journal {
	j := &Journal{
		Mode:         ModeEncrypt,
		Success:      true,
		InputDigest:  types.DigestOf([]byte("in")),
		OutputDigest: types.DigestOf([]byte("out")),
	}
	copy(j.Nonce[:], "0123456789ab")
	return j
}

// 手工编码必须与 go-ethereum abi 编码逐字节一致
func TestEncryptionJournalMatchesABI(t *testing.T) {
	j := sampleEncryptionJournal()
	args := abi.Arguments{
		{Type: mustType(t, "uint8")},
		{Type: mustType(t, "uint8")},
		{Type: mustType(t, "bool")},
		{Type: mustType(t, "bytes12")},
		{Type: mustType(t, "bytes32")},
		{Type: mustType(t, "bytes32")},
	}
	packed, err := args.Pack(uint8(JournalVersion), uint8(ModeEncrypt), true, j.Nonce,
		[32]byte(j.InputDigest), [32]byte(j.OutputDigest))
	require.NoError(t, err)
	assert.Equal(t, packed, j.Encode())

	values, err := args.Unpack(j.Encode())
	require.NoError(t, err)
	assert.Equal(t, true, values[2])
	assert.Equal(t, j.Nonce, values[3])
}

func TestValidationJournalMatchesABI(t *testing.T) {
	j := &Journal{
		Mode:           ModeValidate,
		Status:         StatusUnsupported,
		SchemaDigest:   types.DigestOf([]byte("s")),
		DocumentDigest: types.DigestOf([]byte("d")),
	}
	args := abi.Arguments{
		{Type: mustType(t, "uint8")},
		{Type: mustType(t, "uint8")},
		{Type: mustType(t, "uint8")},
		{Type: mustType(t, "bytes32")},
		{Type: mustType(t, "bytes32")},
	}
	packed, err := args.Pack(uint8(JournalVersion), uint8(ModeValidate), uint8(StatusUnsupported),
		[32]byte(j.SchemaDigest), [32]byte(j.DocumentDigest))
	require.NoError(t, err)
	assert.Equal(t, packed, j.Encode())
	assert.Len(t, j.Encode(), ValidationJournalSize)
}

func TestJournalRoundTrip(t *testing.T) {
	for _, j := range []*Journal{
		sampleEncryptionJournal(),
		{Mode: ModeDecrypt, InputDigest: types.DigestOf([]byte("x"))},
		{Mode: ModeValidate, Status: StatusValid},
	} {
		got, err := DecodeJournal(j.Encode())
		require.NoError(t, err)
		assert.Equal(t, j, got)
		assert.Equal(t, j.Digest(), JournalDigest(j.Encode()))
	}
}

func TestDecodeJournalRejectsNonCanonical(t *testing.T) {
	base := sampleEncryptionJournal().Encode()
	mutate := func(i int, v byte) []byte {
		b := append([]byte{}, base...)
		b[i] = v
		return b
	}

	cases := map[string][]byte{
		"length":          base[:100],
		"version high":    mutate(0, 1),
		"version":         mutate(31, 2),
		"success value":   mutate(2*32+31, 2),
		"nonce padding":   mutate(3*32+20, 1),
		"mode for length": mutate(63, byte(ModeValidate)),
	}
	failed := sampleEncryptionJournal()
	failed.Success = false
	cases["output digest on failure"] = failed.Encode()

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJournal(data)
			assert.ErrorIs(t, err, types.ErrEncoding)
		})
	}
}

func TestJournalView(t *testing.T) {
	enc := (&Journal{Mode: ModeEncrypt, Success: true}).View()
	assert.Equal(t, "encrypt", enc.Mode)
	require.NotNil(t, enc.Success)
	assert.True(t, *enc.Success)
	assert.Empty(t, enc.Status)

	val := (&Journal{Mode: ModeValidate, Status: StatusUnsupported}).View()
	assert.Equal(t, "unsupported", val.Status)
	assert.Nil(t, val.Success)
}
