// Package types provides the shared receipt, claim, error and configuration types.
package types

// AppConfig 应用程序根配置
// 只包含配置文件（JSON 或 YAML）解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	AppName *string `json:"app_name,omitempty" yaml:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"` // 数据目录路径

	// Environment 运行环境：dev | test | prod
	// 只影响日志级别、默认路径等运维属性；dev 环境下验证器默认接受 dev 收据
	Environment *string `json:"environment,omitempty" yaml:"environment,omitempty"`

	Log      *UserLogConfig      `json:"log,omitempty" yaml:"log,omitempty"`
	Prover   *UserProverConfig   `json:"prover,omitempty" yaml:"prover,omitempty"`
	Sandbox  *UserSandboxConfig  `json:"sandbox,omitempty" yaml:"sandbox,omitempty"`
	Storage  *UserStorageConfig  `json:"storage,omitempty" yaml:"storage,omitempty"`
	API      *UserAPIConfig      `json:"api,omitempty" yaml:"api,omitempty"`
	Verifier *UserVerifierConfig `json:"verifier,omitempty" yaml:"verifier,omitempty"`
	OnChain  *UserOnChainConfig  `json:"onchain,omitempty" yaml:"onchain,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty" yaml:"level,omitempty"`           // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty" yaml:"file_path,omitempty"`   // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty" yaml:"to_console,omitempty"` // 是否输出到控制台
}

// UserProverConfig 用户证明配置
type UserProverConfig struct {
	// Backend 证明后端：cpu | gpu-cuda | gpu-metal | dev
	Backend *string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Fallback 后端出现资源类错误时依次尝试的后端
	Fallback []string `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	MaxConcurrentProofs *int    `json:"max_concurrent_proofs,omitempty" yaml:"max_concurrent_proofs,omitempty"`
	MinFreeMemoryMB     *uint64 `json:"min_free_memory_mb,omitempty" yaml:"min_free_memory_mb,omitempty"`
	MaxWitnessBytes     *int    `json:"max_witness_bytes,omitempty" yaml:"max_witness_bytes,omitempty"`
	ProveTimeoutSec     *int    `json:"prove_timeout_sec,omitempty" yaml:"prove_timeout_sec,omitempty"`

	// SetupDir 可信设置（证明密钥/验证密钥）持久化目录，为空时进程内生成
	SetupDir *string `json:"setup_dir,omitempty" yaml:"setup_dir,omitempty"`
}

// UserSandboxConfig 用户沙箱配置
type UserSandboxConfig struct {
	// Kind 沙箱类型：wasm | native
	Kind *string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// ImagePath wasm 访客镜像路径（kind=wasm 时必填）
	ImagePath *string `json:"image_path,omitempty" yaml:"image_path,omitempty"`

	MaxMemoryPages *uint32 `json:"max_memory_pages,omitempty" yaml:"max_memory_pages,omitempty"`
	UseCompiler    *bool   `json:"use_compiler,omitempty" yaml:"use_compiler,omitempty"`
}

// UserStorageConfig 用户收据存储配置
type UserStorageConfig struct {
	DataRoot     *string `json:"data_root,omitempty" yaml:"data_root,omitempty"`         // 数据根目录
	InMemory     *bool   `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`         // 内存模式（测试用）
	Compression  *bool   `json:"compression,omitempty" yaml:"compression,omitempty"`     // 收据 snappy 压缩
	CacheEnabled *bool   `json:"cache_enabled,omitempty" yaml:"cache_enabled,omitempty"` // 热收据缓存
	CacheSizeMB  *int    `json:"cache_size_mb,omitempty" yaml:"cache_size_mb,omitempty"` // 缓存容量
	CacheTTLSec  *int    `json:"cache_ttl_sec,omitempty" yaml:"cache_ttl_sec,omitempty"` // 缓存条目存活时间
}

// UserAPIConfig 用户 API 配置
type UserAPIConfig struct {
	HTTPEnabled    *bool   `json:"http_enabled,omitempty" yaml:"http_enabled,omitempty"`       // 是否启用HTTP服务（默认true）
	HTTPHost       *string `json:"http_host,omitempty" yaml:"http_host,omitempty"`             // 监听地址
	HTTPPort       *int    `json:"http_port,omitempty" yaml:"http_port,omitempty"`             // HTTP监听端口
	MetricsEnabled *bool   `json:"metrics_enabled,omitempty" yaml:"metrics_enabled,omitempty"` // 是否暴露 /metrics
}

// UserVerifierConfig 用户验证器配置
type UserVerifierConfig struct {
	// AllowDev 是否接受 dev 后端的伪收据
	AllowDev *bool `json:"allow_dev,omitempty" yaml:"allow_dev,omitempty"`
}

// UserOnChainConfig 用户链上验证配置
type UserOnChainConfig struct {
	RPCURL          *string `json:"rpc_url,omitempty" yaml:"rpc_url,omitempty"`                   // 以太坊 JSON-RPC 端点
	VerifierAddress *string `json:"verifier_address,omitempty" yaml:"verifier_address,omitempty"` // 验证合约地址
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string { return &s }

// BoolPtr 返回布尔指针
func BoolPtr(b bool) *bool { return &b }

// IntPtr 返回整数指针
func IntPtr(i int) *int { return &i }
