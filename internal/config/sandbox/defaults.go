package sandbox

// 沙箱配置默认值
const (
	// defaultKind 默认使用进程内访客，配置 image_path 后使用 wasm
	defaultKind = "native"

	// defaultMaxMemoryPages 线性内存上限 4096 页（256 MiB）
	defaultMaxMemoryPages = 4096

	// defaultUseCompiler 优先使用 wazero 编译器模式
	defaultUseCompiler = true
)
