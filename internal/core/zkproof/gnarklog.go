package zkproof

import (
	"io"
	"sync"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

var quietOnce sync.Once

// quietGnark 禁用 gnark 库的日志输出
//
// gnark 使用 zerolog 输出编译/证明调试信息，会污染我们的日志系统。
// 并发证明共享同一全局 logger，因此进程内只关闭一次，不做保存与恢复。
func quietGnark() {
	quietOnce.Do(func() {
		gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	})
}
