package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别
	defaultLogLevel = "info"

	// defaultToConsole 默认启用控制台输出（stderr，避免污染命令行的 stdout 输出）
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大大小（MB）
	defaultMaxSize = 100

	// defaultMaxBackups 最大备份文件数
	defaultMaxBackups = 10

	// defaultMaxAge 日志文件最大保留天数
	defaultMaxAge = 30

	// defaultCompress 默认压缩历史日志
	defaultCompress = true

	// === 调试配置 ===

	defaultEnableCaller     = true
	defaultEnableStacktrace = true

	// === 分文件配置 ===

	// defaultEnableSplit 默认关闭分文件：证明流水线日志与服务日志写入同一文件
	defaultEnableSplit = false

	// defaultPipelineLogFile 证明流水线日志文件名（host、zkproof、sandbox、verifier）
	defaultPipelineLogFile = "zkreceipt-pipeline.log"

	// defaultServiceLogFile 服务日志文件名（api、receipts、app）
	defaultServiceLogFile = "zkreceipt-service.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
