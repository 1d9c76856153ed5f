// Package version provides version information for the application.
package version

import (
	"fmt"
	"runtime"
	"time"

	"github.com/weisyn/zkreceipt/internal/core/zkproof"
)

// 构建时通过 ldflags 注入
var (
	Version   = "v0.0.1"
	BuildTime = "unknown" // RFC3339
)

// BuildInfo 构建信息
//
// Circuit 标识收据声明电路版本：电路变更后旧可信设置与导出的验证合约都会失效。
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	Circuit   string `json:"circuit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo 获取构建信息
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		Circuit:   fmt.Sprintf("%s.v%d", zkproof.ReceiptClaimCircuitID, zkproof.ReceiptClaimCircuitVersion),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersion 多行版本信息（version 命令）
func GetFullVersion() string {
	info := GetBuildInfo()
	out := fmt.Sprintf("zkreceipt %s", info.Version)
	if info.BuildTime != "unknown" {
		if parsed, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			out += fmt.Sprintf("\n构建时间: %s", parsed.Format("2006-01-02 15:04:05 MST"))
		} else {
			out += fmt.Sprintf("\n构建时间: %s", info.BuildTime)
		}
	}
	out += fmt.Sprintf("\n电路: %s", info.Circuit)
	out += fmt.Sprintf("\nGo版本: %s", info.GoVersion)
	out += fmt.Sprintf("\n平台: %s", info.Platform)
	return out
}
