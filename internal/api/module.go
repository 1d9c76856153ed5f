// Package api 汇集对外 API 服务
package api

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkreceipt/internal/api/http"
)

// Module 返回API模块
func Module() fx.Option {
	return fx.Module("api",
		http.Module(),

		// 确保HTTP服务器被构造（生命周期钩子在构造时注册）
		fx.Invoke(func(*http.Server) {}),
	)
}
