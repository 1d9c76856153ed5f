// Package zkvm 定义证明流水线各组件之间的公共接口
//
// ════════════════════════════════════════════════════════════════════════════
// 📋 **组件关系**：
//
//	调用方 → HostDriver → Sandbox（访客） → 日志
//	       → ProofBackend（封印） → Receipt
//	       → Verifier / 链上编码器
//
// 🔒 **设计约束**：
//   - 封印对应用层不透明，只有对应证明系统的 SealVerifier 能解析
//   - 每次证明使用全新的 Sandbox 实例，不共享可变状态
//   - Verifier 无状态，可并发使用，从不接触见证数据
//
// ════════════════════════════════════════════════════════════════════════════
package zkvm

import (
	"context"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// ExitStatus 访客结束状态
type ExitStatus struct {
	Code    uint32 // 访客退出码，0 表示正常提交
	Trapped bool   // 访客异常终止（陷阱、内存越限、panic）
	Trap    string // 异常描述
}

// OK 是否正常结束
func (s ExitStatus) OK() bool {
	return !s.Trapped && s.Code == 0
}

// Sandbox 访客隔离执行环境
//
// 调用顺序固定为 Load → WriteInput → Run → ReadJournal/ReadOutput → Close。
type Sandbox interface {
	// Load 加载访客镜像（wasm 模块编译结果在工厂内按镜像标识缓存）
	Load(ctx context.Context, image types.GuestImage) error

	// WriteInput 设置输入通道内容（见证帧），沙箱不拷贝，调用方负责在证明结束后清零
	WriteInput(frame []byte) error

	// Run 运行访客直到结束；仅在宿主侧故障或上下文取消时返回错误
	Run(ctx context.Context) (ExitStatus, error)

	// ReadJournal 返回访客提交的公开日志；提交帧缺失或格式错误时返回 ErrExecution
	ReadJournal() ([]byte, error)

	// ReadOutput 返回访客的私有输出（可能为 nil）
	ReadOutput() []byte

	// Close 释放实例资源
	Close(ctx context.Context) error
}

// SandboxFactory 按镜像类型创建全新的沙箱实例
type SandboxFactory interface {
	NewSandbox(image types.GuestImage) (Sandbox, error)
}

// ProofBackend 证明后端
//
// 同一证明系统下的不同加速器（cpu/gpu-cuda）产生可互换的封印。
type ProofBackend interface {
	// Name 后端名：cpu | gpu-cuda | gpu-metal | dev
	Name() string

	// System 封印所属的证明系统
	System() types.BackendID

	// Prove 为声明生成封印；trace 为执行摘要，作为证明的私有输入
	Prove(ctx context.Context, claim types.ProofClaim, trace types.Digest) ([]byte, error)
}

// SealVerifier 某一证明系统的封印验证器
type SealVerifier interface {
	System() types.BackendID

	// VerifySeal 封印与声明不一致时返回 ErrVerificationMismatch
	VerifySeal(claim types.ProofClaim, seal []byte) error
}

// Verifier 收据验证器
type Verifier interface {
	Verify(ctx context.Context, receipt *types.Receipt, claim types.VerificationClaim) (*types.VerifyResult, error)
}

// ReceiptSink 证明成功后的收据持久化钩子
type ReceiptSink interface {
	Put(ctx context.Context, receipt *types.Receipt) (types.Digest, error)
}
