// Package app 提供了定价服务进程的生命周期管理：组件钩子、服务器、信号与资源清理。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// App 是应用程序的核心容器，负责管理应用程序的生命周期。
type App struct {
	name      string
	logger    *slog.Logger
	opts      options
	lifecycle *Lifecycle
}

// New 创建一个新的应用程序实例。
func New(name string, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	lc := NewLifecycle(logger)
	for _, h := range o.hooks {
		lc.Append(h)
	}
	return &App{name: name, logger: logger, opts: o, lifecycle: lc}
}

// Name 返回应用名称。
func (a *App) Name() string { return a.name }

// Health 依次执行已注册的健康检查，返回合并后的错误。
func (a *App) Health() error {
	var errs []error
	for _, check := range a.opts.healthCheckers {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run 启动组件与服务器并阻塞，直到收到 SIGINT/SIGTERM、ctx 被取消或任一服务器失败。
// 返回前会逆序停止组件并执行清理函数。
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	if err := a.lifecycle.Start(ctx); err != nil {
		a.shutdown()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.opts.servers {
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}
	runErr := g.Wait()
	if runErr != nil {
		a.logger.Error("server exited with error", "error", runErr)
	}

	a.logger.Info("shutting down application", "name", a.name)
	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		a.logger.Info("application shut down gracefully")
	}
	return runErr
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.shutdownTimeout)
	defer cancel()

	// 服务器在 gctx 取消时已自行优雅关闭，这里只处理组件与清理函数
	err := a.lifecycle.Stop(ctx)
	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}
	return err
}
