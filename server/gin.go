// Package server 提供了定价 HTTP 服务的 Gin 引擎与服务器封装。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/config"
)

const defaultShutdownTimeout = 5 * time.Second

// GinServer 封装了标准的 `http.Server`，专门用于运行 Gin 引擎，并提供了优雅的启动和关闭功能。
type GinServer struct {
	server *http.Server
	addr   string
	logger *slog.Logger
}

// NewGinServer 创建一个新的Gin服务器实例。
func NewGinServer(engine *gin.Engine, addr string, logger *slog.Logger) *GinServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GinServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:   addr,
		logger: logger,
	}
}

// NewGinServerFromConfig 按 HTTP 配置创建服务器，零值超时保持 net/http 默认行为。
func NewGinServerFromConfig(engine *gin.Engine, cfg config.HTTPConfig, logger *slog.Logger) *GinServer {
	s := NewGinServer(engine, cfg.ListenAddr(), logger)
	s.server.ReadTimeout = cfg.ReadTimeout
	s.server.WriteTimeout = cfg.WriteTimeout
	s.server.IdleTimeout = cfg.IdleTimeout
	if cfg.ReadHeaderTimeout > 0 {
		s.server.ReadHeaderTimeout = cfg.ReadHeaderTimeout
	}
	return s
}

// Addr 返回监听地址。
func (s *GinServer) Addr() string {
	return s.addr
}

// Start 启动Gin HTTP服务器。
// 这是一个阻塞操作，它会监听上下文的取消事件以触发优雅关闭。
func (s *GinServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定的监听器上提供服务，测试中可传入随机端口。
func (s *GinServer) Serve(ctx context.Context, ln net.Listener) error {
	s.addr = ln.Addr().String()
	s.logger.Info("starting gin server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gin server stopping due to context cancellation")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Stop 优雅地停止Gin服务器。
func (s *GinServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gin server gracefully")
	ctx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
