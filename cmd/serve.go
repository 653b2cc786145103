package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"collage_field_v1/internal/router"
	"collage_field_v1/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动字段捷径 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		gin.SetMode(cfg.Server.Mode)

		deps, err := initDependencies()
		if err != nil {
			return err
		}
		defer closeDependencies(deps)

		// 定时任务
		var cleanup *task.LogCleanupTask
		if deps.ExecLogRepo != nil {
			cleanup = task.NewLogCleanupTask(deps.ExecLogRepo, cfg.Cleanup.Spec, cfg.Cleanup.RetentionDays, log)
			if err := cleanup.Start(); err != nil {
				return err
			}
			defer cleanup.Stop()
		}

		r := router.SetupRouter(deps.Controllers, log)
		return startServer(r, cfg.Server.Port)
	},
}

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(r *gin.Engine, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	errCh := make(chan error, 1)

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("服务已退出")
	return nil
}
