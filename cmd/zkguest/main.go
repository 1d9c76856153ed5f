// Command zkguest 是访客程序的 wasip1 入口
//
// 构建：GOOS=wasip1 GOARCH=wasm go build -o zkguest.wasm ./cmd/zkguest
//
// 沙箱把见证帧写入 stdin，从 stdout 读取提交帧，以退出码判断是否正常结束。
package main

import (
	"os"

	"github.com/weisyn/zkreceipt/internal/core/guest"
)

func main() {
	os.Exit(guest.Run(os.Stdin, os.Stdout))
}
