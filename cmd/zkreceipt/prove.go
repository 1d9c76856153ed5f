package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkreceipt/internal/core/host"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/sandbox"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// proveFlags prove 子命令标志
type proveFlags struct {
	mode        string
	witnessFile string
	backend     string
	imageFile   string
	outFile     string
	withOutput  bool
}

// proveResult prove 的标准输出
type proveResult struct {
	ReceiptID     string            `json:"receipt_id"`
	ImageID       string            `json:"image_id"`
	JournalDigest string            `json:"journal_digest"`
	Backend       string            `json:"backend"`
	Journal       logic.JournalView `json:"journal"`
	Output        string            `json:"output,omitempty"`
	Stats         host.Stats        `json:"stats"`
	Receipt       *types.Receipt    `json:"receipt,omitempty"` // 未指定 --out 时内联
}

func newProveCmd(global *GlobalFlags) *cobra.Command {
	flags := &proveFlags{}
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "执行计算并生成收据",
		Long: `在访客中执行加密、解密或 JSON Schema 校验，并生成收据。

见证文件为 JSON：
  加解密: {"mode":"encrypt","key":"<hex>","nonce":"<hex>","aad":"<hex>","payload":"<hex>"}
  校验:   {"mode":"validate","document":{...},"schema":{...}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.mode, "mode", "", "计算模式: encrypt|decrypt|validate (可由见证文件给出)")
	cmd.Flags().StringVar(&flags.witnessFile, "witness", "", "见证文件 (JSON，\"-\" 表示 stdin)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "证明后端: cpu|gpu-cuda|gpu-metal|dev (默认取配置)")
	cmd.Flags().StringVar(&flags.imageFile, "image", "", "wasm 访客镜像 (默认使用配置或内置访客)")
	cmd.Flags().StringVar(&flags.outFile, "out", "", "收据输出文件 (JSON)")
	cmd.Flags().BoolVar(&flags.withOutput, "print-output", false, "输出访客的私有结果 (密文或明文，十六进制)")
	_ = cmd.MarkFlagRequired("witness")
	return cmd
}

func runProve(cmd *cobra.Command, global *GlobalFlags, flags *proveFlags) error {
	witness, err := readWitness(cmd, flags.witnessFile, flags.mode)
	if err != nil {
		return err
	}
	defer witness.Zero()

	p, err := newPipeline(global)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer p.Close(ctx)

	sandboxOptions := p.provider.GetSandbox()
	if flags.imageFile != "" {
		sandboxOptions.Kind = string(types.ImageKindWasm)
		sandboxOptions.ImagePath = flags.imageFile
	}
	image, err := sandbox.ResolveImage(sandboxOptions)
	if err != nil {
		return err
	}

	driver, err := p.driver(ctx)
	if err != nil {
		return err
	}
	chain := p.provider.GetProver().BackendChain()
	if flags.backend != "" {
		chain = []string{flags.backend}
	}

	info, err := driver.ProveWith(ctx, image, witness, chain)
	if err != nil {
		return err
	}
	defer logic.Wipe(info.Output)

	journal, err := logic.DecodeJournal(info.Receipt.Journal())
	if err != nil {
		return types.WrapEncodingError("decode_journal", err)
	}
	result := proveResult{
		ReceiptID:     info.Receipt.ID().Hex(),
		ImageID:       info.Receipt.ImageID().Hex(),
		JournalDigest: info.Receipt.JournalDigest().Hex(),
		Backend:       info.Stats.Backend,
		Journal:       journal.View(),
		Stats:         info.Stats,
	}
	if flags.withOutput {
		result.Output = hex.EncodeToString(info.Output)
	}

	if flags.outFile != "" {
		data, err := json.MarshalIndent(info.Receipt, "", "  ")
		if err != nil {
			return types.WrapEncodingError("marshal_receipt", err)
		}
		if err := writeFileOrStdout(cmd, flags.outFile, data); err != nil {
			return err
		}
	} else {
		result.Receipt = info.Receipt
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

// readWitness 读取见证文件；mode 为空时以文件中的模式为准
func readWitness(cmd *cobra.Command, path, modeName string) (*logic.Witness, error) {
	var mode logic.Mode
	if modeName != "" {
		m, err := logic.ParseMode(modeName)
		if err != nil {
			return nil, types.WrapMalformedWitness("parse_mode", err)
		}
		mode = m
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("读取见证文件失败: %w", err)
	}
	defer logic.Wipe(data)
	return logic.ParseWitnessJSON(data, mode)
}
