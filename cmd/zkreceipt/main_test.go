package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkreceipt/internal/core/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	content := "data_dir: " + dir + "\nenvironment: test\nlog:\n  level: error\nprover:\n  backend: dev\n"
	require.NoError(t, os.WriteFile(config, []byte(content), 0o600))
	return &cliEnv{dir: dir, config: config}
}

func (e *cliEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *cliEnv) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const hiWitness = `{"mode":"encrypt","key":"00000000000000000000000000000000","nonce":"000000000000000000000000","payload":"6869"}`

func TestCLI_ProveVerifyEncode(t *testing.T) {
	env := newCLIEnv(t)
	witness := env.write(t, "witness.json", hiWitness)
	receiptFile := filepath.Join(env.dir, "receipt.json")

	out, err := env.run("prove", "--witness", witness, "--backend", "dev", "--out", receiptFile, "--print-output")
	require.NoError(t, err)

	var proved proveResult
	require.NoError(t, json.Unmarshal([]byte(out), &proved))
	assert.Equal(t, sandbox.DefaultNativeImage().ID().Hex(), proved.ImageID)
	assert.Equal(t, "dev", proved.Backend)
	assert.Equal(t, "6be1e33a8eca511a295273c9ded20879c6d8", proved.Output)
	assert.Nil(t, proved.Receipt)
	require.FileExists(t, receiptFile)

	t.Run("验证通过", func(t *testing.T) {
		out, err := env.run("verify", "--receipt", receiptFile, "--image-id", proved.ImageID,
			"--journal-digest", proved.JournalDigest, "--allow-dev")
		require.NoError(t, err)
		var result verifyResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.True(t, result.Valid)
		require.NotNil(t, result.Journal)
		assert.Equal(t, "encrypt", result.Journal.Mode)
	})

	t.Run("日志摘要不一致", func(t *testing.T) {
		wrong := strings.Repeat("ab", 32)
		out, err := env.run("verify", "--receipt", receiptFile, "--image-id", proved.ImageID,
			"--journal-digest", wrong, "--allow-dev")
		require.Error(t, err)
		assert.Equal(t, types.ExitVerificationMismatch, types.ExitCodeFor(err))
		assert.Contains(t, out, `"valid": false`)
	})

	t.Run("镜像标识格式错误", func(t *testing.T) {
		_, err := env.run("verify", "--receipt", receiptFile, "--image-id", "zz")
		require.Error(t, err)
		assert.Equal(t, types.ExitEncodingError, types.ExitCodeFor(err))
	})

	t.Run("编码", func(t *testing.T) {
		out, err := env.run("encode", "--receipt", receiptFile)
		require.NoError(t, err)
		var encoded encodeResult
		require.NoError(t, json.Unmarshal([]byte(out), &encoded))
		assert.Equal(t, "0x00000000", encoded.Selector)
		assert.True(t, strings.HasPrefix(encoded.Seal, encoded.Selector))
		assert.True(t, strings.HasPrefix(encoded.Calldata, "0x"))
		assert.Contains(t, encoded.ImageID, proved.ImageID)
		assert.Empty(t, encoded.VerifyProof)
	})
}

func TestCLI_Groth16ExportedVerifier(t *testing.T) {
	env := newCLIEnv(t)
	witness := env.write(t, "witness.json", hiWitness)
	receiptFile := filepath.Join(env.dir, "receipt.json")

	_, err := env.run("prove", "--witness", witness, "--backend", "cpu", "--out", receiptFile)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(env.dir, "setup", "receipt_claim.v1.vk"))

	t.Run("编码导出合约调用", func(t *testing.T) {
		out, err := env.run("encode", "--receipt", receiptFile)
		require.NoError(t, err)
		var encoded encodeResult
		require.NoError(t, json.Unmarshal([]byte(out), &encoded))
		method := hex.EncodeToString(crypto.Keccak256([]byte("verifyProof(uint256[8],uint256[5])"))[:4])
		assert.True(t, strings.HasPrefix(encoded.VerifyProof, "0x"+method), encoded.VerifyProof)
	})

	t.Run("导出合约", func(t *testing.T) {
		contract := filepath.Join(env.dir, "Verifier.sol")
		_, err := env.run("export-verifier", "--out", contract)
		require.NoError(t, err)
		src, err := os.ReadFile(contract)
		require.NoError(t, err)
		assert.Contains(t, string(src), "uint256[5] calldata input")
	})

	t.Run("新进程加载验证密钥", func(t *testing.T) {
		out, err := env.run("verify", "--receipt", receiptFile, "--image-id", sandbox.DefaultNativeImage().ID().Hex())
		require.NoError(t, err)
		assert.Contains(t, out, `"valid": true`)
	})

	t.Run("缺少验证密钥", func(t *testing.T) {
		fresh := newCLIEnv(t)
		_, err := fresh.run("verify", "--receipt", receiptFile, "--image-id", sandbox.DefaultNativeImage().ID().Hex())
		require.Error(t, err)
		assert.ErrorIs(t, err, zkproof.ErrVerifierNotInitialized)
		assert.Equal(t, types.ExitOther, types.ExitCodeFor(err))
		assert.NoDirExists(t, filepath.Join(fresh.dir, "setup"))
	})
}

func TestCLI_ProveInlineReceipt(t *testing.T) {
	env := newCLIEnv(t)
	witness := env.write(t, "witness.json", `{"mode":"validate","document":{"name":"a"},"schema":{"type":"object","required":["name"]}}`)

	out, err := env.run("prove", "--witness", witness)
	require.NoError(t, err)

	var proved proveResult
	require.NoError(t, json.Unmarshal([]byte(out), &proved))
	require.NotNil(t, proved.Receipt)
	assert.Equal(t, "validate", proved.Journal.Mode)
	assert.Empty(t, proved.Output)
	assert.Equal(t, proved.ReceiptID, proved.Receipt.ID().Hex())
}

func TestCLI_MalformedWitness(t *testing.T) {
	env := newCLIEnv(t)

	t.Run("未知字段", func(t *testing.T) {
		witness := env.write(t, "bad.json", `{"mode":"encrypt","secret":"00"}`)
		_, err := env.run("prove", "--witness", witness)
		require.Error(t, err)
		assert.Equal(t, types.ExitMalformedWitness, types.ExitCodeFor(err))
	})

	t.Run("模式冲突", func(t *testing.T) {
		witness := env.write(t, "conflict.json", hiWitness)
		_, err := env.run("prove", "--witness", witness, "--mode", "decrypt")
		require.Error(t, err)
		assert.Equal(t, types.ExitMalformedWitness, types.ExitCodeFor(err))
	})

	t.Run("缺少见证参数", func(t *testing.T) {
		_, err := env.run("prove")
		require.Error(t, err)
		assert.Equal(t, types.ExitOther, types.ExitCodeFor(err))
	})
}

func TestCLI_ImageID(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("image-id")
	require.NoError(t, err)
	assert.Contains(t, out, sandbox.DefaultNativeImage().ID().Hex())

	module := env.write(t, "guest.wasm", "\x00asm\x01\x00\x00\x00")
	out, err = env.run("image-id", "--image", module)
	require.NoError(t, err)
	assert.Contains(t, out, types.DigestOf([]byte("\x00asm\x01\x00\x00\x00")).Hex())
}

func TestCLI_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("prover:\n  backend: tpu\n"), 0o600))
	witness := env.write(t, "witness.json", hiWitness)

	_, err := env.run("prove", "--witness", witness)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prover.backend")
}
