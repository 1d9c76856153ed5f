package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/onchain"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// verifyFlags verify 子命令标志
type verifyFlags struct {
	receiptFile   string
	imageID       string
	journalDigest string
	allowDev      bool
	onchain       bool
	rpcURL        string
	contract      string
}

// verifyResult verify 的标准输出
type verifyResult struct {
	Valid         bool               `json:"valid"`
	Reason        string             `json:"reason,omitempty"`
	ReceiptID     string             `json:"receipt_id"`
	JournalDigest string             `json:"journal_digest"`
	Journal       *logic.JournalView `json:"journal,omitempty"`
	OnChain       *bool              `json:"onchain,omitempty"`
}

func newVerifyCmd(global *GlobalFlags) *cobra.Command {
	flags := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "验证收据",
		Long: `验证收据的封印是否证明了 (镜像, 日志摘要) 声明。

未给出 --journal-digest 时只固定镜像，日志内容随结果输出供调用方检查。
--onchain 额外通过 eth_call 调用验证合约。验证不通过时退出码为 5。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.receiptFile, "receipt", "", "收据文件 (JSON 或二进制，\"-\" 表示 stdin)")
	cmd.Flags().StringVar(&flags.imageID, "image-id", "", "期望的访客镜像标识 (十六进制)")
	cmd.Flags().StringVar(&flags.journalDigest, "journal-digest", "", "期望的日志摘要 (十六进制)")
	cmd.Flags().BoolVar(&flags.allowDev, "allow-dev", false, "接受 dev 后端的伪收据")
	cmd.Flags().BoolVar(&flags.onchain, "onchain", false, "同时在链上验证")
	cmd.Flags().StringVar(&flags.rpcURL, "rpc-url", "", "以太坊 JSON-RPC 端点 (覆盖配置)")
	cmd.Flags().StringVar(&flags.contract, "contract", "", "验证合约地址 (覆盖配置)")
	_ = cmd.MarkFlagRequired("receipt")
	_ = cmd.MarkFlagRequired("image-id")
	return cmd
}

func runVerify(cmd *cobra.Command, global *GlobalFlags, flags *verifyFlags) error {
	receipt, err := readReceipt(cmd, flags.receiptFile)
	if err != nil {
		return err
	}
	claim, err := parseClaim(flags.imageID, flags.journalDigest)
	if err != nil {
		return err
	}

	p, err := newPipeline(global)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer p.Close(ctx)
	result, err := p.verifier(flags.allowDev).Verify(ctx, receipt, claim)
	if err != nil {
		return err
	}
	out := verifyResult{
		Valid:         result.Valid,
		Reason:        result.Reason,
		ReceiptID:     receipt.ID().Hex(),
		JournalDigest: receipt.JournalDigest().Hex(),
	}
	if journal, err := logic.DecodeJournal(receipt.Journal()); err == nil {
		view := journal.View()
		out.Journal = &view
	}

	if result.Valid && flags.onchain {
		options := *p.provider.GetOnChain()
		if flags.rpcURL != "" {
			options.RPCURL = flags.rpcURL
		}
		if flags.contract != "" {
			options.VerifierAddress = flags.contract
		}
		client, err := onchain.Dial(ctx, &options, p.logger)
		if err != nil {
			return err
		}
		defer client.Close()
		ok, err := client.Verify(ctx, receipt)
		if err != nil {
			return err
		}
		out.OnChain = &ok
		if !ok {
			out.Valid = false
			out.Reason = "rejected by on-chain verifier"
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !out.Valid {
		return types.WrapVerificationMismatch("verify", errors.New(out.Reason))
	}
	return nil
}

// parseClaim 解析期望的声明
func parseClaim(imageHex, journalDigestHex string) (types.VerificationClaim, error) {
	image, err := types.ParseDigest(imageHex)
	if err != nil {
		return types.VerificationClaim{}, types.WrapEncodingError("parse_image_id", err)
	}
	if journalDigestHex == "" {
		return types.ClaimForImage(image), nil
	}
	digest, err := types.ParseDigest(journalDigestHex)
	if err != nil {
		return types.VerificationClaim{}, types.WrapEncodingError("parse_journal_digest", err)
	}
	return types.NewClaim(image, digest), nil
}

// readReceipt 读取收据文件，以 '{' 开头按 JSON 解析，否则按二进制格式
func readReceipt(cmd *cobra.Command, path string) (*types.Receipt, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("读取收据文件失败: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		receipt := &types.Receipt{}
		if err := json.Unmarshal(trimmed, receipt); err != nil {
			return nil, types.WrapEncodingError("decode_receipt_json", err)
		}
		return receipt, nil
	}
	return types.DecodeReceipt(data)
}
