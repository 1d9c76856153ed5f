package types

import (
	"fmt"
	"os"
)

// ImageKind 访客镜像类型
type ImageKind string

const (
	// ImageKindWasm wasip1 模块，在 wazero 沙箱中运行
	ImageKindWasm ImageKind = "wasm"
	// ImageKindNative 进程内注册的访客入口，镜像字节为程序描述符
	ImageKindNative ImageKind = "native"
)

// nativeDescriptorPrefix 进程内访客描述符前缀
const nativeDescriptorPrefix = "zkreceipt/native-guest/v1/"

// GuestImage 访客程序镜像
//
// ImageID 恒为 sha256(Bytes)：wasm 镜像为模块二进制，native 镜像为程序描述符。
type GuestImage struct {
	Kind  ImageKind
	Name  string
	Bytes []byte
}

// ID 返回镜像标识
func (img GuestImage) ID() ImageID {
	return DigestOf(img.Bytes)
}

// WasmImage 从模块字节构造 wasm 镜像
func WasmImage(name string, module []byte) GuestImage {
	return GuestImage{Kind: ImageKindWasm, Name: name, Bytes: cloneBytes(module)}
}

// LoadWasmImage 从文件读取 wasm 镜像
func LoadWasmImage(path string) (GuestImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GuestImage{}, fmt.Errorf("read guest image %s: %w", path, err)
	}
	return GuestImage{Kind: ImageKindWasm, Name: path, Bytes: data}, nil
}

// NativeImage 构造进程内访客镜像
func NativeImage(name string) GuestImage {
	return GuestImage{Kind: ImageKindNative, Name: name, Bytes: []byte(nativeDescriptorPrefix + name)}
}
