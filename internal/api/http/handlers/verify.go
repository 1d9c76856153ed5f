package handlers

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkreceipt/internal/api/http/middleware"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/receipts"
	"github.com/weisyn/zkreceipt/internal/core/verifier"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// VerifyRequest 验证请求：直接给出收据，或给出已存储收据的 ID
type VerifyRequest struct {
	Receipt       *types.Receipt `json:"receipt,omitempty"`
	ReceiptID     string         `json:"receipt_id,omitempty"`
	ImageID       string         `json:"image_id" binding:"required"`
	JournalDigest string         `json:"journal_digest,omitempty"`
}

// VerifyResponse 验证响应
type VerifyResponse struct {
	Valid   bool               `json:"valid"`
	Reason  string             `json:"reason,omitempty"`
	Journal string             `json:"journal,omitempty"`
	View    *logic.JournalView `json:"journal_view,omitempty"`
}

// VerifyHandler 验证端点
type VerifyHandler struct {
	verifier *verifier.Verifier
	store    *receipts.Store // 可选
}

// NewVerifyHandler 创建验证处理器
func NewVerifyHandler(v *verifier.Verifier, store *receipts.Store) *VerifyHandler {
	return &VerifyHandler{verifier: v, store: store}
}

// RegisterRoutes 注册路由
//
//	POST /v1/verify
func (h *VerifyHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify", h.Verify)
}

// Verify 验证收据；不一致以 200 + valid=false 返回
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, types.WrapEncodingError("bind_request", err))
		return
	}

	claim, err := claimFromRequest(req.ImageID, req.JournalDigest)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	receipt := req.Receipt
	if receipt == nil {
		receipt, err = h.lookup(c, req.ReceiptID)
		if err != nil {
			return
		}
	}

	result, err := h.verifier.Verify(c.Request.Context(), receipt, claim)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	resp := VerifyResponse{Valid: result.Valid, Reason: result.Reason}
	if result.Journal != nil {
		resp.Journal = hex.EncodeToString(result.Journal)
		if j, err := logic.DecodeJournal(result.Journal); err == nil {
			view := j.View()
			resp.View = &view
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VerifyHandler) lookup(c *gin.Context, id string) (*types.Receipt, error) {
	if id == "" {
		err := errors.New("receipt or receipt_id is required")
		middleware.WriteErrorCode(c, http.StatusBadRequest, middleware.CodeInvalidArgument, err.Error())
		return nil, err
	}
	if h.store == nil {
		err := errors.New("receipt store is disabled")
		middleware.WriteErrorCode(c, http.StatusServiceUnavailable, middleware.CodeUnavailable, err.Error())
		return nil, err
	}
	return loadReceipt(c, h.store, id)
}

func claimFromRequest(imageHex, journalHex string) (types.VerificationClaim, error) {
	image, err := types.ParseDigest(imageHex)
	if err != nil {
		return types.VerificationClaim{}, types.WrapEncodingError("image_id", err)
	}
	if journalHex == "" {
		return types.ClaimForImage(image), nil
	}
	digest, err := types.ParseDigest(journalHex)
	if err != nil {
		return types.VerificationClaim{}, types.WrapEncodingError("journal_digest", err)
	}
	return types.NewClaim(image, digest), nil
}
