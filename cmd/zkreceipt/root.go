package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	config "github.com/weisyn/zkreceipt/internal/config"
	logconfig "github.com/weisyn/zkreceipt/internal/config/log"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	configiface "github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile string // 配置文件（.json / .yaml）
	Verbose    bool   // 详细日志
}

// newRootCmd 构建命令树
func newRootCmd() *cobra.Command {
	flags := &GlobalFlags{}
	rootCmd := &cobra.Command{
		Use:   "zkreceipt",
		Short: "AES-GCM / JSON Schema 计算的可验证收据",
		Long: `zkreceipt 在隔离的访客中执行 AES-GCM 加解密或 JSON Schema 校验，
为执行结果生成零知识收据，并在本地或链上验证。

典型流程:
  zkreceipt prove --mode encrypt --witness witness.json --out receipt.json
  zkreceipt verify --receipt receipt.json --image-id <hex>
  zkreceipt encode --receipt receipt.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "配置文件路径 (默认读取环境变量 ZKRECEIPT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "输出 info 级别日志")

	rootCmd.AddCommand(
		newProveCmd(flags),
		newVerifyCmd(flags),
		newEncodeCmd(),
		newImageIDCmd(),
		newExportVerifierCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// loadProvider 读取并校验配置
func loadProvider(flags *GlobalFlags) (configiface.Provider, error) {
	path := flags.ConfigFile
	if path == "" {
		path = os.Getenv("ZKRECEIPT_CONFIG")
	}
	var appConfig *types.AppConfig
	if path != "" {
		cfg, err := config.LoadAppConfig(path)
		if err != nil {
			return nil, err
		}
		appConfig = cfg
	}
	provider := config.NewProvider(appConfig)
	if err := config.ValidateProvider(provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// newLogger 命令行默认只输出警告以上级别到 stderr
func newLogger(flags *GlobalFlags, provider configiface.Provider) (log.Logger, error) {
	options := *provider.GetLog()
	if !flags.Verbose && (options.Level == "info" || options.Level == "debug") {
		options.Level = "warn"
	}
	return logimpl.New(logconfig.NewFromOptions(&options))
}

// writeJSON 以缩进 JSON 输出
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFileOrStdout path 为空或 "-" 时写 stdout
func writeFileOrStdout(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// readInput path 为 "-" 时读 stdin
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
