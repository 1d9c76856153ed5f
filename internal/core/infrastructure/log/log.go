// Package log 提供基于 zap 的日志实现
// 支持控制台/文件输出、lumberjack 日志轮转，以及按 module 字段拆分流水线日志与服务日志
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/weisyn/zkreceipt/internal/config/log"
	logInterface "github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// 全局日志实例
	globalLogger logInterface.Logger
	// 保护全局日志实例
	mu sync.RWMutex
)

// Logger 日志记录器，实现 log.Logger 接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为默认配置
func ResetDefault() {
	logger, err := New(logconfig.New(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// moduleRoutingCore 按 module 字段路由的 Core
//
// 流水线模块写入 pipeline 文件，服务模块写入 service 文件，其余两边都写。
type moduleRoutingCore struct {
	pipelineCore zapcore.Core
	serviceCore  zapcore.Core
}

func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.pipelineCore.Enabled(level) || c.serviceCore.Enabled(level)
}

// With 携带 module 字段时直接收敛到对应的 Core
func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	switch module := moduleOf(fields); {
	case isPipelineModule(module):
		return c.pipelineCore.With(fields)
	case isServiceModule(module):
		return c.serviceCore.With(fields)
	}
	return &moduleRoutingCore{
		pipelineCore: c.pipelineCore.With(fields),
		serviceCore:  c.serviceCore.With(fields),
	}
}

func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := moduleOf(fields)
	switch {
	case isPipelineModule(module):
		return c.pipelineCore.Write(entry, fields)
	case isServiceModule(module):
		return c.serviceCore.Write(entry, fields)
	}
	var errs []error
	if err := c.pipelineCore.Write(entry, fields); err != nil {
		errs = append(errs, err)
	}
	if err := c.serviceCore.Write(entry, fields); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("写入日志失败: %v", errs)
	}
	return nil
}

func (c *moduleRoutingCore) Sync() error {
	var errs []error
	if err := c.pipelineCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := c.serviceCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("同步日志文件失败: %v", errs)
	}
	return nil
}

func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if str, ok := field.Interface.(string); ok {
				return str
			}
		}
	}
	return ""
}

// isPipelineModule 证明流水线模块
func isPipelineModule(module string) bool {
	switch module {
	case "host", "zkproof", "sandbox", "verifier", "onchain":
		return true
	}
	return false
}

// isServiceModule 服务模块
func isServiceModule(module string) bool {
	switch module {
	case "api", "receipts", "storage", "app", "cli":
		return true
	}
	return false
}

// createFileWriter 创建带轮转的文件写入器
func createFileWriter(logPath string, config *logconfig.Config) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "创建日志目录失败 %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	})
}

// New 根据配置创建日志记录器
//
// 控制台输出固定写 stderr，stdout 留给命令行结果（收据 JSON、calldata 等）。
func New(config *logconfig.Config) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.AddSync(os.Stderr), level))
	}

	if outputPath := config.GetFilePath(); outputPath != "" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
		}
		fileEncoder := config.CreateFileEncoder()
		if config.IsSplitEnabled() {
			logDir := filepath.Dir(absPath)
			pipelineCore := zapcore.NewCore(fileEncoder,
				createFileWriter(filepath.Join(logDir, config.GetPipelineLogFile()), config), level)
			serviceCore := zapcore.NewCore(fileEncoder,
				createFileWriter(filepath.Join(logDir, config.GetServiceLogFile()), config), level)
			cores = append(cores, &moduleRoutingCore{pipelineCore: pipelineCore, serviceCore: serviceCore})
		} else {
			cores = append(cores, zapcore.NewCore(fileEncoder, createFileWriter(absPath, config), level))
		}
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// 跳过一层封装，使调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// NewFromZap 包装已有的 zap 日志记录器
func NewFromZap(zapLogger *zap.Logger) logInterface.Logger {
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Info 使用全局日志记录器记录信息级别日志
func Info(msg string) {
	if l := GetLogger(); l != nil {
		l.Info(msg)
	}
}

// Warnf 使用全局日志记录器记录警告级别日志
func Warnf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf 使用全局日志记录器记录错误级别日志
func Errorf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Errorf(format, args...)
	}
}

// With 基于全局日志记录器创建带字段的记录器
func With(args ...interface{}) logInterface.Logger {
	l := GetLogger()
	if l == nil {
		return logInterface.Nop()
	}
	return l.With(args...)
}

// toZapFields 键值对转换为 zap 字段，奇数个参数时丢弃最后一个
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(msg string)                          { l.sugar.Fatal(msg) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
