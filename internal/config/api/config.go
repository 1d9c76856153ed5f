// Package api 提供 HTTP API 服务配置
package api

import (
	"fmt"
	"time"

	configtypes "github.com/weisyn/zkreceipt/pkg/types"
)

// APIOptions API服务配置选项
type APIOptions struct {
	HTTPEnabled    bool          `json:"http_enabled"`
	HTTPHost       string        `json:"http_host"`
	HTTPPort       int           `json:"http_port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	MaxRequestSize int64         `json:"max_request_size"`
	MetricsEnabled bool          `json:"metrics_enabled"`
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置：先应用默认值，再用用户配置覆盖
func New(userConfig interface{}) *Config {
	options := &APIOptions{
		HTTPEnabled:    defaultHTTPEnabled,
		HTTPHost:       defaultHTTPHost,
		HTTPPort:       defaultHTTPPort,
		ReadTimeout:    defaultReadTimeout,
		WriteTimeout:   defaultWriteTimeout,
		MaxRequestSize: defaultMaxRequestSize,
		MetricsEnabled: defaultMetricsEnabled,
	}
	if user, ok := userConfig.(*configtypes.UserAPIConfig); ok && user != nil {
		if user.HTTPEnabled != nil {
			options.HTTPEnabled = *user.HTTPEnabled
		}
		if user.HTTPHost != nil {
			options.HTTPHost = *user.HTTPHost
		}
		if user.HTTPPort != nil {
			options.HTTPPort = *user.HTTPPort
		}
		if user.MetricsEnabled != nil {
			options.MetricsEnabled = *user.MetricsEnabled
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

// Addr 监听地址 host:port
func (o *APIOptions) Addr() string {
	return fmt.Sprintf("%s:%d", o.HTTPHost, o.HTTPPort)
}
