package prover

import "time"

// 证明配置默认值
const (
	// defaultBackend 默认 CPU 上的 Groth16/BN254
	defaultBackend = "cpu"

	// defaultMaxConcurrentProofs 并发证明上限，Groth16 证明本身已充分利用多核
	defaultMaxConcurrentProofs = 2

	// defaultMinFreeMemoryMB 可用内存低于此值时拒绝开始证明（后端资源错误）
	defaultMinFreeMemoryMB = 256

	// defaultMaxWitnessBytes 见证帧上限 16 MiB
	defaultMaxWitnessBytes = 16 << 20

	// defaultProveTimeout 单次证明超时，0 表示不限
	defaultProveTimeout = 10 * time.Minute

	// defaultSetupDir 为空时可信设置在进程内生成（Provider 会改为 {data_dir}/setup）
	defaultSetupDir = ""
)
