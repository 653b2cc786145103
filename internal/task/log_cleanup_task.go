package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"collage_field_v1/internal/repository"
)

// LogCleanupTask 执行日志清理任务
// 定期物理删除超过保留期的执行日志
type LogCleanupTask struct {
	repo          repository.ExecutionLogRepository
	cron          *cron.Cron
	spec          string
	retentionDays int
	logger        *zap.Logger
	now           func() time.Time
}

// NewLogCleanupTask 创建清理任务
// spec 为秒级 cron 表达式
func NewLogCleanupTask(repo repository.ExecutionLogRepository, spec string, retentionDays int, logger *zap.Logger) *LogCleanupTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogCleanupTask{
		repo:          repo,
		cron:          cron.New(cron.WithSeconds()), // 支持秒级控制
		spec:          spec,
		retentionDays: retentionDays,
		logger:        logger.Named("cron"),
		now:           time.Now,
	}
}

// Start 启动定时任务
// retentionDays 为 0 时不启动
func (t *LogCleanupTask) Start() error {
	if t.retentionDays <= 0 {
		t.logger.Info("执行日志保留天数为 0，清理任务未启动")
		return nil
	}

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := t.RunOnce(ctx); err != nil {
			t.logger.Error("执行日志清理失败", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("无法启动执行日志清理任务: %w", err)
	}

	t.cron.Start()
	t.logger.Info("执行日志清理任务已启动", zap.String("spec", t.spec), zap.Int("retention_days", t.retentionDays))
	return nil
}

// Stop 停止定时任务并等待正在运行的任务结束
func (t *LogCleanupTask) Stop() {
	<-t.cron.Stop().Done()
}

// RunOnce 执行一次清理，返回删除条数
func (t *LogCleanupTask) RunOnce(ctx context.Context) (int64, error) {
	before := t.now().AddDate(0, 0, -t.retentionDays)

	deleted, err := t.repo.DeleteBefore(ctx, before)
	if err != nil {
		return 0, err
	}

	t.logger.Info("本轮执行日志清理完成", zap.Int64("deleted", deleted), zap.Time("before", before))
	return deleted, nil
}
