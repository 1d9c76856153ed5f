package api

import "time"

// API服务默认配置值
const (
	// defaultHTTPEnabled 默认启用HTTP API
	defaultHTTPEnabled = true

	// defaultHTTPHost 默认只监听本机，对外暴露需显式配置
	defaultHTTPHost = "127.0.0.1"

	// defaultHTTPPort HTTP端口
	defaultHTTPPort = 8080

	// defaultReadTimeout 读取超时
	defaultReadTimeout = 30 * time.Second

	// defaultWriteTimeout 写入超时，需覆盖一次完整的 Groth16 证明
	defaultWriteTimeout = 10 * time.Minute

	// defaultMaxRequestSize 请求体上限，与见证帧上限一致再加 JSON/十六进制膨胀余量
	defaultMaxRequestSize = 40 << 20

	// defaultMetricsEnabled 默认暴露 /metrics
	defaultMetricsEnabled = true
)
