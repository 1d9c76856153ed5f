package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkreceipt/internal/core/sandbox"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

func newImageIDCmd() *cobra.Command {
	var imageFile string
	cmd := &cobra.Command{
		Use:   "image-id",
		Short: "计算访客镜像标识",
		Long:  `输出访客镜像标识 sha256(镜像字节)。未给出 --image 时输出内置访客的标识。`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			image := sandbox.DefaultNativeImage()
			if imageFile != "" {
				loaded, err := types.LoadWasmImage(imageFile)
				if err != nil {
					return err
				}
				image = loaded
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"kind":     string(image.Kind),
				"name":     image.Name,
				"image_id": image.ID().Hex(),
			})
		},
	}
	cmd.Flags().StringVar(&imageFile, "image", "", "wasm 访客镜像文件")
	return cmd
}

func newExportVerifierCmd(global *GlobalFlags) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export-verifier",
		Short: "导出 Solidity 验证合约",
		Long: `按当前可信设置导出 Groth16 验证合约。

可信设置取自 prover.setup_dir；目录中没有密钥时会生成并保存，
之后用同一目录生成的 cpu/gpu 收据都能被导出的合约验证。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(global)
			if err != nil {
				return err
			}
			defer p.Close(cmd.Context())

			var buf bytes.Buffer
			if err := zkproof.ExportSolidityVerifier(p.setup, &buf); err != nil {
				return err
			}
			return writeFileOrStdout(cmd, outFile, buf.Bytes())
		},
	}
	cmd.Flags().StringVar(&outFile, "out", "", "输出文件 (默认 stdout)")
	return cmd
}
