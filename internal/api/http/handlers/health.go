package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkreceipt/internal/core/host"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// HealthHandler 健康检查端点
type HealthHandler struct {
	startTime time.Time
	image     types.GuestImage
	registry  *zkproof.Registry
	pool      *host.Pool // 可选
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(image types.GuestImage, registry *zkproof.Registry, pool *host.Pool) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), image: image, registry: registry, pool: pool}
}

// RegisterRoutes 注册路由
//
//	GET /health
//	GET /health/live
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.GetHealth)
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
}

// GetHealth 完整健康报告
func (h *HealthHandler) GetHealth(c *gin.Context) {
	resp := gin.H{
		"status":   "ok",
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
		"image_id": h.image.ID().Hex(),
	}
	if h.registry != nil {
		resp["backends"] = h.registry.Names()
	}
	if h.pool != nil {
		resp["pool"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
