package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sandboxconfig "github.com/weisyn/zkreceipt/internal/config/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/guest"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// guestWasmEnv 指向预先构建的 cmd/zkguest 产物时跳过 TestMain 中的构建
const guestWasmEnv = "ZKRECEIPT_GUEST_WASM"

var (
	guestWasmPath string
	guestWasmErr  error
)

// TestMain 构建 wasip1 访客，供 wasm 与 native 一致性测试使用
func TestMain(m *testing.M) {
	var cleanup func()
	guestWasmPath, cleanup, guestWasmErr = buildGuestWasm()
	code := m.Run()
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

func buildGuestWasm() (string, func(), error) {
	if path := os.Getenv(guestWasmEnv); path != "" {
		return path, nil, nil
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		return "", nil, err
	}
	root, err := moduleRoot()
	if err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp("", "zkguest-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	out := filepath.Join(dir, "zkguest.wasm")
	cmd := exec.Command(goBin, "build", "-trimpath", "-o", out, "./cmd/zkguest")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("build cmd/zkguest: %v\n%s", err, output)
	}
	return out, cleanup, nil
}

// moduleRoot 自当前目录向上查找 go.mod
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}

func realGuestImage(t *testing.T) types.GuestImage {
	t.Helper()
	if guestWasmErr != nil {
		t.Skipf("wasip1 访客构建失败: %v", guestWasmErr)
	}
	image, err := types.LoadWasmImage(guestWasmPath)
	require.NoError(t, err)
	return image
}

func witnessFrame(t *testing.T, w *logic.Witness) []byte {
	t.Helper()
	frame, err := logic.EncodeWitness(w)
	require.NoError(t, err)
	return frame
}

// TestRealGuestParity 同一见证在 wasm 访客与 native 访客上提交相同的日志与输出
func TestRealGuestParity(t *testing.T) {
	wasmImage := realGuestImage(t)
	schema := []byte(`{"type":"object","required":["name"]}`)

	cases := []struct {
		name  string
		frame []byte
		exit  uint32
	}{
		{"加密", encryptFrame(t), guest.ExitOK},
		{"校验通过", witnessFrame(t, &logic.Witness{Mode: logic.ModeValidate, Document: []byte(`{"name":"a"}`), Schema: schema}), guest.ExitOK},
		{"校验不通过", witnessFrame(t, &logic.Witness{Mode: logic.ModeValidate, Document: []byte(`{"age":1}`), Schema: schema}), guest.ExitOK},
		{"模式无法解析", witnessFrame(t, &logic.Witness{Mode: logic.ModeValidate, Document: []byte(`{}`), Schema: []byte(`{"type":`)}), guest.ExitOK},
		{"密钥长度错误", witnessFrame(t, &logic.Witness{Mode: logic.ModeEncrypt, Key: make([]byte, 15), Nonce: make([]byte, 12), Payload: []byte("hi")}), guest.ExitOK},
		{"见证帧损坏", []byte("junk"), guest.ExitMalformedInput},
	}

	// 默认配置：平台支持时使用编译器模式
	m, err := NewManager(context.Background(), sandboxconfig.New(nil).GetOptions(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wasmSB, wasmStatus, err := runImage(t, m, wasmImage, tc.frame)
			require.NoError(t, err)
			nativeSB, nativeStatus, err := runImage(t, m, DefaultNativeImage(), tc.frame)
			require.NoError(t, err)

			require.False(t, wasmStatus.Trapped, wasmStatus.Trap)
			assert.Equal(t, tc.exit, wasmStatus.Code)
			assert.Equal(t, nativeStatus.Code, wasmStatus.Code)
			if tc.exit != guest.ExitOK {
				return
			}

			wasmJournal, err := wasmSB.ReadJournal()
			require.NoError(t, err)
			nativeJournal, err := nativeSB.ReadJournal()
			require.NoError(t, err)
			assert.Equal(t, nativeJournal, wasmJournal)
			assert.Equal(t, nativeSB.ReadOutput(), wasmSB.ReadOutput())

			_, err = logic.DecodeJournal(wasmJournal)
			assert.NoError(t, err)
		})
	}
}
