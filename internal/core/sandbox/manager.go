// Package sandbox 提供访客隔离执行环境
//
// 两种实现：
//   - wasm：wazero WASI 沙箱，运行 cmd/zkguest 构建出的 wasip1 模块
//   - native：进程内运行注册的访客入口，供测试及不分发 wasm 镜像的宿主使用
//
// 两者遵循同一 I/O 约定：stdin 为见证帧，stdout 为提交帧，退出码表示结束状态。
package sandbox

import (
	"context"
	"fmt"

	sandboxconfig "github.com/weisyn/zkreceipt/internal/config/sandbox"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Manager 按镜像类型分派沙箱实例，实现 zkvm.SandboxFactory
type Manager struct {
	wasm *WazeroEngine
}

var _ zkvm.SandboxFactory = (*Manager)(nil)

// NewManager 创建沙箱管理器，wazero 引擎随之初始化
func NewManager(ctx context.Context, options *sandboxconfig.SandboxOptions, logger log.Logger) (*Manager, error) {
	engine, err := NewWazeroEngine(ctx, options, logger)
	if err != nil {
		return nil, err
	}
	return &Manager{wasm: engine}, nil
}

// NewSandbox 为镜像创建全新实例
func (m *Manager) NewSandbox(image types.GuestImage) (zkvm.Sandbox, error) {
	switch image.Kind {
	case types.ImageKindWasm:
		return m.wasm.NewSandbox(), nil
	case types.ImageKindNative:
		return NewNativeSandbox(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownImageKind, image.Kind)
	}
}

// Close 释放 wazero 运行时
func (m *Manager) Close(ctx context.Context) error {
	return m.wasm.Close(ctx)
}

// ResolveImage 按配置确定访客镜像：kind=wasm 时读取 image_path，否则为内置进程内访客
func ResolveImage(options *sandboxconfig.SandboxOptions) (types.GuestImage, error) {
	if options == nil || options.Kind == string(types.ImageKindNative) {
		return DefaultNativeImage(), nil
	}
	if options.Kind != string(types.ImageKindWasm) {
		return types.GuestImage{}, fmt.Errorf("%w: %q", ErrUnknownImageKind, options.Kind)
	}
	if options.ImagePath == "" {
		return types.GuestImage{}, fmt.Errorf("sandbox: kind=wasm requires image_path")
	}
	return types.LoadWasmImage(options.ImagePath)
}
