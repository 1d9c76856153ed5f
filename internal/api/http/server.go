// Package http 提供证明服务的 HTTP API
//
// 📋 **端点**：
//
//	POST /v1/prove                  运行访客并返回收据
//	POST /v1/verify                 验证收据
//	GET  /v1/image                  当前访客镜像
//	GET  /v1/receipts               列出已存储收据
//	GET  /v1/receipts/:id           读取收据
//	GET  /v1/receipts/:id/calldata  链上 verify 调用数据
//	GET  /health, /health/live      健康检查
//	GET  /metrics                   Prometheus 指标
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/zkreceipt/internal/api/http/handlers"
	"github.com/weisyn/zkreceipt/internal/api/http/middleware"
	apiconfig "github.com/weisyn/zkreceipt/internal/config/api"
	"github.com/weisyn/zkreceipt/internal/core/host"
	"github.com/weisyn/zkreceipt/internal/core/receipts"
	"github.com/weisyn/zkreceipt/internal/core/verifier"
	"github.com/weisyn/zkreceipt/internal/core/zkproof"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Deps HTTP 服务依赖
type Deps struct {
	Options  *apiconfig.APIOptions
	Logger   log.Logger
	Prover   host.Prover
	Pool     *host.Pool // 可选，用于健康报告
	Image    types.GuestImage
	Verifier *verifier.Verifier
	Registry *zkproof.Registry
	Store    *receipts.Store      // 可选，为空时不注册收据端点
	Metrics  *prometheus.Registry // 可选，为空时不暴露 /metrics
}

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    *apiconfig.APIOptions
	logger     log.Logger
	addr       string
}

// NewServer 创建HTTP服务器并注册路由
func NewServer(deps Deps) (*Server, error) {
	if deps.Prover == nil || deps.Verifier == nil {
		return nil, errors.New("http server requires a prover and a verifier")
	}
	if deps.Options == nil {
		deps.Options = apiconfig.New(nil).GetOptions()
	}
	if deps.Logger == nil {
		deps.Logger = log.Nop()
	}

	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.NewMetrics(deps.Metrics).Middleware())
	}
	if limit := deps.Options.MaxRequestSize; limit > 0 {
		router.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
			c.Next()
		})
	}

	s := &Server{router: router, options: deps.Options, logger: deps.Logger}
	s.setupRoutes(deps)
	return s, nil
}

// setupRoutes 设置HTTP路由
func (s *Server) setupRoutes(deps Deps) {
	v1 := s.router.Group("/v1")

	handlers.NewProofHandler(deps.Prover, deps.Image, deps.Logger).RegisterRoutes(v1)
	handlers.NewVerifyHandler(deps.Verifier, deps.Store).RegisterRoutes(v1)
	if deps.Store != nil {
		handlers.NewReceiptHandler(deps.Store).RegisterRoutes(v1)
	} else {
		s.logger.Info("收据存储未启用，跳过收据查询路由")
	}

	handlers.NewHealthHandler(deps.Image, deps.Registry, deps.Pool).RegisterRoutes(s.router)

	if deps.Metrics != nil && s.options.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{Registry: deps.Metrics})))
	}
}

// Handler 返回路由处理器（测试使用）
func (s *Server) Handler() http.Handler { return s.router }

// Addr 实际监听地址，Start 之前为空
func (s *Server) Addr() string { return s.addr }

// Start 启动HTTP服务器；端口被占用时直接失败
func (s *Server) Start() error {
	addr := s.options.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	s.addr = listener.Addr().String()

	// 写超时需覆盖一次完整证明（默认 10 分钟）
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务器异常退出: %v", err)
		}
	}()

	s.logger.Infof("✅ HTTP服务器启动成功，监听地址: %s", s.addr)
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("正在关闭HTTP服务器...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭HTTP服务器失败: %w", err)
	}
	return nil
}
