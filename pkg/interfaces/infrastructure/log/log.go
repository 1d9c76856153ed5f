// Package log 定义 zkreceipt 的日志记录接口
//
// 📋 **日志接口**
//
// 宿主驱动、证明后端、验证器、收据存储与 HTTP 服务共用同一接口；
// 访客程序不记录日志。实现位于 internal/core/infrastructure/log（zap）。
package log

import "go.uber.org/zap"

// Logger 定义日志记录器接口
type Logger interface {
	// Debug 记录调试级别的日志
	Debug(msg string)

	// Debugf 使用格式化字符串记录调试级别的日志
	Debugf(format string, args ...interface{})

	// Info 记录信息级别的日志
	Info(msg string)

	// Infof 使用格式化字符串记录信息级别的日志
	Infof(format string, args ...interface{})

	// Warn 记录警告级别的日志
	Warn(msg string)

	// Warnf 使用格式化字符串记录警告级别的日志
	Warnf(format string, args ...interface{})

	// Error 记录错误级别的日志
	Error(msg string)

	// Errorf 使用格式化字符串记录错误级别的日志
	Errorf(format string, args ...interface{})

	// Fatal 记录致命级别的日志，然后退出程序
	Fatal(msg string)

	// Fatalf 使用格式化字符串记录致命级别的日志，然后退出程序
	Fatalf(format string, args ...interface{})

	// With 返回一个带有额外键值字段的Logger
	With(args ...interface{}) Logger

	// Sync 同步日志缓冲区到输出
	Sync() error

	// GetZapLogger 获取原始的zap日志记录器
	GetZapLogger() *zap.Logger
}

// Nop 返回丢弃所有输出的 Logger
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string)                  {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Info(string)                   {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warn(string)                   {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Error(string)                  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatal(string)                  {}
func (nopLogger) Fatalf(string, ...interface{}) {}
func (n nopLogger) With(...interface{}) Logger  { return n }
func (nopLogger) Sync() error                   { return nil }
func (nopLogger) GetZapLogger() *zap.Logger     { return zap.NewNop() }
