package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/zkreceipt/internal/app"
)

func newServeCmd(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 证明服务",
		Long: `装配完整的证明服务（工作池、收据存储、验证器、HTTP API 与 /metrics），
直到收到 SIGINT/SIGTERM。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []app.Option
			if global.ConfigFile != "" {
				opts = append(opts, app.WithConfigFile(global.ConfigFile))
			}
			return app.Run(cmd.Context(), opts...)
		},
	}
}
