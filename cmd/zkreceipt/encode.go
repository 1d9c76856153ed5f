package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkreceipt/internal/core/onchain"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// encodeResult encode 的标准输出（十六进制均带 0x 前缀）
type encodeResult struct {
	Selector      string `json:"selector"`
	Seal          string `json:"seal"` // 选择器 || 后端封印
	ImageID       string `json:"image_id"`
	JournalDigest string `json:"journal_digest"`
	Calldata      string `json:"calldata"`                        // verify(bytes,bytes32,bytes32)
	VerifyProof   string `json:"verify_proof_calldata,omitempty"` // verifyProof(uint256[8],uint256[5])，仅 groth16
	Journal       string `json:"journal_abi"`                     // ABI 编码的日志 (bytes)
}

func newEncodeCmd() *cobra.Command {
	var receiptFile string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "编码链上验证 calldata",
		Long: `把收据编码为链上验证调用数据：
  calldata               路由合约 verify(bytes seal, bytes32 imageId, bytes32 journalDigest)
  verify_proof_calldata  export-verifier 导出合约 verifyProof(uint256[8] proof, uint256[5] input)，仅 groth16 收据`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := readReceipt(cmd, receiptFile)
			if err != nil {
				return err
			}
			result, err := encodeReceipt(receipt)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&receiptFile, "receipt", "", "收据文件 (JSON 或二进制，\"-\" 表示 stdin)")
	_ = cmd.MarkFlagRequired("receipt")
	return cmd
}

func encodeReceipt(receipt *types.Receipt) (*encodeResult, error) {
	selector, err := onchain.Selector(receipt.BackendID())
	if err != nil {
		return nil, err
	}
	seal, err := onchain.EncodeSeal(receipt)
	if err != nil {
		return nil, err
	}
	calldata, err := onchain.Encode(receipt)
	if err != nil {
		return nil, err
	}
	journal, err := onchain.EncodeJournalCall(receipt.Journal())
	if err != nil {
		return nil, err
	}
	result := &encodeResult{
		Selector:      hex0x(selector[:]),
		Seal:          hex0x(seal),
		ImageID:       hex0x(receipt.ImageID().Bytes()),
		JournalDigest: hex0x(receipt.JournalDigest().Bytes()),
		Calldata:      hex0x(calldata),
		Journal:       hex0x(journal),
	}
	if receipt.BackendID() == types.BackendGroth16BN254 {
		verifyProof, err := onchain.EncodeVerifyProof(receipt)
		if err != nil {
			return nil, err
		}
		result.VerifyProof = hex0x(verifyProof)
	}
	return result, nil
}

func hex0x(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
