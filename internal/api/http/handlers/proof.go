// Package handlers 提供 HTTP API 端点处理器
package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkreceipt/internal/api/http/middleware"
	"github.com/weisyn/zkreceipt/internal/core/host"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ProveRequest 证明请求
type ProveRequest struct {
	Witness logic.WitnessJSON `json:"witness"`

	// ReturnOutput 是否在响应中返回私有输出（密文或明文）
	ReturnOutput bool `json:"return_output,omitempty"`
}

// ProveResponse 证明响应
type ProveResponse struct {
	ReceiptID     string            `json:"receipt_id"`
	Receipt       *types.Receipt    `json:"receipt"`
	JournalDigest string            `json:"journal_digest"`
	Journal       logic.JournalView `json:"journal"`
	Output        string            `json:"output,omitempty"`
	Stats         host.Stats        `json:"stats"`
}

// ProofHandler 证明端点
type ProofHandler struct {
	prover host.Prover
	image  types.GuestImage
	logger log.Logger
}

// NewProofHandler 创建证明处理器
func NewProofHandler(prover host.Prover, image types.GuestImage, logger log.Logger) *ProofHandler {
	if logger == nil {
		logger = log.Nop()
	}
	return &ProofHandler{prover: prover, image: image, logger: logger}
}

// RegisterRoutes 注册路由
//
//	POST /v1/prove
//	GET  /v1/image
func (h *ProofHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/prove", h.Prove)
	r.GET("/image", h.Image)
}

// Prove 运行访客并返回收据
func (h *ProofHandler) Prove(c *gin.Context) {
	var req ProveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, types.WrapMalformedWitness("bind_request", err))
		return
	}
	witness, err := req.Witness.Witness(0)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	defer witness.Zero()

	info, err := h.prover.Prove(c.Request.Context(), h.image, witness)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	resp := ProveResponse{
		ReceiptID:     info.Receipt.ID().Hex(),
		Receipt:       info.Receipt,
		JournalDigest: info.Receipt.JournalDigest().Hex(),
		Stats:         info.Stats,
	}
	if j, err := logic.DecodeJournal(info.Receipt.Journal()); err == nil {
		resp.Journal = j.View()
	}
	if req.ReturnOutput && info.Output != nil {
		resp.Output = hex.EncodeToString(info.Output)
	}
	logic.Wipe(info.Output)
	c.JSON(http.StatusOK, resp)
}

// Image 当前访客镜像信息
func (h *ProofHandler) Image(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"image_id": h.image.ID().Hex(),
		"kind":     h.image.Kind,
		"name":     h.image.Name,
	})
}
