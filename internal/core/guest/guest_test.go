package guest

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/types"
)

func runGuest(t *testing.T, input []byte) (int, []byte) {
	t.Helper()
	var stdout bytes.Buffer
	code := Run(bytes.NewReader(input), &stdout)
	return code, stdout.Bytes()
}

func TestRunEncrypt(t *testing.T) {
	frame, err := logic.EncodeWitness(&logic.Witness{
		Mode: logic.ModeEncrypt, Key: make([]byte, 16), Nonce: make([]byte, 12), Payload: []byte("hi"),
	})
	require.NoError(t, err)

	code, out := runGuest(t, frame)
	require.Equal(t, ExitOK, code)

	commit, err := DecodeCommit(out)
	require.NoError(t, err)
	assert.Equal(t, "6be1e33a8eca511a295273c9ded20879c6d8", hex.EncodeToString(commit.Output))

	j, err := logic.DecodeJournal(commit.Journal)
	require.NoError(t, err)
	assert.True(t, j.Success)
}

func TestRunMalformedFrameCommitsNothing(t *testing.T) {
	code, out := runGuest(t, []byte("ZKW1garbage"))
	assert.Equal(t, ExitMalformedInput, code)
	assert.Empty(t, out)
}

func TestRunCapturesLogicError(t *testing.T) {
	frame, err := logic.EncodeWitness(&logic.Witness{
		Mode: logic.ModeEncrypt, Key: make([]byte, 5), Nonce: make([]byte, 12), Payload: []byte("hi"),
	})
	require.NoError(t, err)

	code, out := runGuest(t, frame)
	require.Equal(t, ExitOK, code)

	commit, err := DecodeCommit(out)
	require.NoError(t, err)
	assert.Nil(t, commit.Output)
	j, err := logic.DecodeJournal(commit.Journal)
	require.NoError(t, err)
	assert.False(t, j.Success)
}

func TestRunValidate(t *testing.T) {
	frame, err := logic.EncodeWitness(&logic.Witness{
		Mode: logic.ModeValidate, Document: []byte(`{"id":1}`), Schema: []byte(`{"required":["id"]}`),
	})
	require.NoError(t, err)

	code, out := runGuest(t, frame)
	require.Equal(t, ExitOK, code)
	commit, err := DecodeCommit(out)
	require.NoError(t, err)
	j, err := logic.DecodeJournal(commit.Journal)
	require.NoError(t, err)
	assert.Equal(t, logic.StatusValid, j.Status)
}

func TestDecodeCommitErrors(t *testing.T) {
	good := EncodeCommit(Commit{Journal: []byte("j"), Output: []byte("o")})
	for name, data := range map[string][]byte{
		"empty":     nil,
		"magic":     append([]byte("ZKJ0"), good[4:]...),
		"truncated": good[:len(good)-1],
		"twice":     append(append([]byte{}, good...), good...),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommit(data)
			assert.ErrorIs(t, err, types.ErrExecution)
			assert.ErrorIs(t, err, ErrCommitFrame)
		})
	}
}
