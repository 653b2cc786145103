package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"collage_field_v1/internal/controller"
	"collage_field_v1/internal/model"
	"collage_field_v1/internal/repository"
	"collage_field_v1/internal/router"
	"collage_field_v1/internal/service"
	"collage_field_v1/pkg/config"
	"collage_field_v1/pkg/database"
	"collage_field_v1/pkg/logger"
	"collage_field_v1/pkg/net"
)

var (
	// 全局参数
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "collagefield",
	Short: "basekit AI 拼图字段捷径服务",
	Long: `collagefield 将多维表格中的图片附件提交给 AI 拼图服务，
并把生成的拼图作为附件字段返回给宿主平台。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		log, err = logger.New(logger.Options{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(serveCmd, execCmd, manifestCmd)
}

func main() {
	err := rootCmd.Execute()
	// RunE 出错时 cobra 会跳过 post-run 钩子，日志统一在这里刷新
	if log != nil {
		_ = log.Sync()
	}
	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

// ==================== 退出码 ====================

// exitError 携带进程退出码的错误
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// exitCode 将命令错误映射为进程退出码
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	ExecLogRepo repository.ExecutionLogRepository
	Collage     *service.CollageService
	Controllers *router.Controllers
}

// initDependencies 初始化所有依赖
// 数据库关闭时不记录执行日志，其余功能不受影响
func initDependencies() (*Dependencies, error) {
	deps := &Dependencies{}

	// -------- Repo 层 --------
	var recorder service.ExecutionRecorder
	if cfg.Database.Enabled() {
		db, err := database.InitDB(database.Options{
			Driver: cfg.Database.Driver,
			DSN:    cfg.Database.DSN,
			Debug:  verbose,
		}, &model.ExecutionLog{})
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.ExecLogRepo = repository.NewExecutionLogRepository(db)
		recorder = deps.ExecLogRepo
		log.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))
	}

	// -------- 服务层 --------
	fetcher := net.NewFetcher(net.NewClient(verbose))
	deps.Collage = service.NewCollageService(fetcher, recorder, log)

	// -------- Controller 层 --------
	deps.Controllers = &router.Controllers{
		Field: controller.NewFieldController(deps.Collage, deps.ExecLogRepo),
	}

	return deps, nil
}

// closeDependencies 释放数据库连接
func closeDependencies(deps *Dependencies) {
	if deps == nil || deps.DB == nil {
		return
	}
	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
