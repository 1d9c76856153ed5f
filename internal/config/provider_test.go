package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// TestGetEnvironment 测试 GetEnvironment() 方法
func TestGetEnvironment(t *testing.T) {
	t.Run("显式配置 dev", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("dev")})
		assert.Equal(t, "dev", provider.GetEnvironment())
		assert.True(t, provider.GetVerifier().AllowDev)
		assert.Equal(t, "debug", provider.GetLog().Level)
	})

	t.Run("未配置时默认为 prod（安全优先）", func(t *testing.T) {
		provider := NewProvider(nil)
		assert.Equal(t, "prod", provider.GetEnvironment())
		assert.False(t, provider.GetVerifier().AllowDev)
	})

	t.Run("无效值默认为 prod", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("staging")})
		assert.Equal(t, "prod", provider.GetEnvironment())
	})
}

func TestProviderDefaults(t *testing.T) {
	provider := NewProvider(&types.AppConfig{})

	p := provider.GetProver()
	assert.Equal(t, "cpu", p.Backend)
	assert.Equal(t, 16<<20, p.MaxWitnessBytes)
	assert.Equal(t, []string{"cpu"}, p.BackendChain())

	assert.Equal(t, "native", provider.GetSandbox().Kind)
	assert.Equal(t, filepath.Join("./data", "receipts"), provider.GetStorage().Path)
	assert.Equal(t, filepath.Join("./data", "setup"), provider.GetProver().SetupDir)
	assert.Equal(t, "127.0.0.1:8080", provider.GetAPI().Addr())
	assert.False(t, provider.GetOnChain().Enabled())
}

func TestParseAppConfigYAML(t *testing.T) {
	data := []byte(`
environment: test
prover:
  backend: gpu-cuda
  fallback: [cpu, cpu, dev]
  prove_timeout_sec: 5
sandbox:
  image_path: ./zkguest.wasm
storage:
  data_root: /tmp/zk
  cache_enabled: false
`)
	cfg, err := ParseAppConfig(data, ".yaml")
	require.NoError(t, err)

	provider := NewProvider(cfg)
	p := provider.GetProver()
	assert.Equal(t, []string{"gpu-cuda", "cpu", "dev"}, p.BackendChain())
	assert.Equal(t, 5*time.Second, p.ProveTimeout)
	require.NoError(t, p.Validate())

	s := provider.GetSandbox()
	assert.Equal(t, "wasm", s.Kind)
	assert.Equal(t, "./zkguest.wasm", s.ImagePath)

	st := provider.GetStorage()
	assert.Equal(t, filepath.Join("/tmp/zk", "receipts"), st.Path)
	assert.False(t, st.CacheEnabled)
}

func TestParseAppConfigJSON(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(`{"prover":{"backend":"tpu"}}`), ".json")
	require.NoError(t, err)
	assert.Error(t, NewProvider(cfg).GetProver().Validate())

	_, err = ParseAppConfig([]byte(`{"unknown_field":1}`), ".json")
	assert.Error(t, err)
}

func TestProvideConfigServicesRejectsUnknownBackend(t *testing.T) {
	cfg := &types.AppConfig{Prover: &types.UserProverConfig{Backend: types.StringPtr("quantum")}}
	_, err := ProvideConfigServices(ConfigParams{AppOptions: NewAppOptions(cfg)})
	assert.Error(t, err)
}

func TestValidateProvider(t *testing.T) {
	t.Run("默认配置通过", func(t *testing.T) {
		assert.NoError(t, ValidateProvider(NewProvider(nil)))
	})

	t.Run("收集全部问题", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{
			Prover:  &types.UserProverConfig{Backend: types.StringPtr("tpu")},
			Sandbox: &types.UserSandboxConfig{Kind: types.StringPtr("wasm")},
			API:     &types.UserAPIConfig{HTTPPort: types.IntPtr(70000)},
			OnChain: &types.UserOnChainConfig{VerifierAddress: types.StringPtr("0xnothex")},
		})
		err := ValidateProvider(provider)
		require.Error(t, err)

		var verrs *ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := make([]string, 0, len(verrs.Errors))
		for _, e := range verrs.Errors {
			var ve *ValidationError
			require.ErrorAs(t, e, &ve)
			fields = append(fields, ve.Field)
		}
		assert.ElementsMatch(t, []string{"prover.backend", "sandbox.image_path", "api.http_port", "onchain.verifier_address"}, fields)
	})

	t.Run("见证上限超过访客上限", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Prover: &types.UserProverConfig{MaxWitnessBytes: types.IntPtr(32 << 20)}})
		err := ValidateProvider(provider)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "prover.max_witness_bytes", ve.Field)

		atLimit := NewProvider(&types.AppConfig{Prover: &types.UserProverConfig{MaxWitnessBytes: types.IntPtr(16 << 20)}})
		assert.NoError(t, ValidateProvider(atLimit))
	})

	t.Run("wasm 镜像存在", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guest.wasm")
		require.NoError(t, os.WriteFile(path, []byte{0, 'a', 's', 'm'}, 0o600))
		provider := NewProvider(&types.AppConfig{Sandbox: &types.UserSandboxConfig{ImagePath: types.StringPtr(path)}})
		assert.NoError(t, ValidateProvider(provider))
	})
}
