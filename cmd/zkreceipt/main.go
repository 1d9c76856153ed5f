// Command zkreceipt 证明、验证与编码收据的命令行工具
//
// 子命令：prove、verify、encode、image-id、export-verifier、serve、version。
// 退出码：0 成功，2 见证格式错误，3 访客执行错误，4 证明后端错误，5 验证不通过，6 编码错误，1 其他。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/weisyn/zkreceipt/pkg/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(types.ExitCodeFor(err))
	}
}
