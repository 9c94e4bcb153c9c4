package server

import "context"

// Server 定义了服务器的生命周期契约，由 app 统一启动与关闭。
type Server interface {
	// Start 阻塞运行，直到 ctx 取消或监听失败。
	Start(ctx context.Context) error
	// Stop 优雅停止，等待处理中的定价请求完成。
	Stop(ctx context.Context) error
}
