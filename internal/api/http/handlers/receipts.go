package handlers

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkreceipt/internal/api/http/middleware"
	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/internal/core/onchain"
	"github.com/weisyn/zkreceipt/internal/core/receipts"
	"github.com/weisyn/zkreceipt/pkg/types"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ReceiptHandler 收据查询端点
type ReceiptHandler struct {
	store *receipts.Store
}

// NewReceiptHandler 创建收据处理器
func NewReceiptHandler(store *receipts.Store) *ReceiptHandler {
	return &ReceiptHandler{store: store}
}

// RegisterRoutes 注册路由
//
//	GET /v1/receipts?limit=&image_id=
//	GET /v1/receipts/:id
//	GET /v1/receipts/:id/calldata
func (h *ReceiptHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/receipts")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/calldata", h.Calldata)
}

// List 列出收据 ID
func (h *ReceiptHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			middleware.WriteErrorCode(c, http.StatusBadRequest, middleware.CodeInvalidArgument, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	var (
		ids []types.Digest
		err error
	)
	if image := c.Query("image_id"); image != "" {
		imageID, perr := types.ParseDigest(image)
		if perr != nil {
			middleware.WriteError(c, types.WrapEncodingError("image_id", perr))
			return
		}
		ids, err = h.store.ListByImage(c.Request.Context(), imageID, limit)
	} else {
		ids, err = h.store.List(c.Request.Context(), limit)
	}
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	c.JSON(http.StatusOK, gin.H{"receipts": out, "count": len(out)})
}

// Get 按 ID 读取收据
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := loadReceipt(c, h.store, c.Param("id"))
	if err != nil {
		return
	}
	resp := gin.H{
		"receipt_id":     receipt.ID().Hex(),
		"receipt":        receipt,
		"journal_digest": receipt.JournalDigest().Hex(),
	}
	if j, err := logic.DecodeJournal(receipt.Journal()); err == nil {
		resp["journal"] = j.View()
	}
	c.JSON(http.StatusOK, resp)
}

// Calldata 收据的链上调用数据（路由 verify，groth16 收据另附导出合约 verifyProof）
func (h *ReceiptHandler) Calldata(c *gin.Context) {
	receipt, err := loadReceipt(c, h.store, c.Param("id"))
	if err != nil {
		return
	}
	calldata, err := onchain.Encode(receipt)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	journalCall, err := onchain.EncodeJournalCall(receipt.Journal())
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	resp := gin.H{
		"calldata":       "0x" + hex.EncodeToString(calldata),
		"journal_abi":    "0x" + hex.EncodeToString(journalCall),
		"image_id":       receipt.ImageID().Hex(),
		"journal_digest": receipt.JournalDigest().Hex(),
		"proof_system":   receipt.BackendID().String(),
	}
	if receipt.BackendID() == types.BackendGroth16BN254 {
		verifyProof, err := onchain.EncodeVerifyProof(receipt)
		if err != nil {
			middleware.WriteError(c, err)
			return
		}
		resp["verify_proof_calldata"] = "0x" + hex.EncodeToString(verifyProof)
	}
	c.JSON(http.StatusOK, resp)
}

// loadReceipt 读取收据，失败时已写入错误响应
func loadReceipt(c *gin.Context, store *receipts.Store, idHex string) (*types.Receipt, error) {
	id, err := types.ParseDigest(idHex)
	if err != nil {
		middleware.WriteError(c, types.WrapEncodingError("receipt_id", err))
		return nil, err
	}
	receipt, err := store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, receipts.ErrNotFound) {
			middleware.WriteErrorCode(c, http.StatusNotFound, middleware.CodeNotFound, err.Error())
		} else {
			middleware.WriteError(c, err)
		}
		return nil, err
	}
	return receipt, nil
}
