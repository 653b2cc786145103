package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"collage_field_v1/internal/model"
)

// ==================== 仓储接口 ====================

// ExecutionLogRepository 字段执行日志仓储接口
type ExecutionLogRepository interface {
	Create(ctx context.Context, log *model.ExecutionLog) error
	GetByRequestID(ctx context.Context, requestID string) (*model.ExecutionLog, error)

	// 统计查询
	GetStats(ctx context.Context, startTime, endTime time.Time) (*ExecutionStats, error)
	GetDailyStats(ctx context.Context, startDate, endDate time.Time) ([]DailyExecutionStats, error)

	// 清理
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 统计结构 ====================

// ExecutionStats 执行统计
type ExecutionStats struct {
	TotalCalls       int64   `json:"total_calls"`
	SuccessCount     int64   `json:"success_count"`
	ConfigErrorCount int64   `json:"config_error_count"`
	FailedCount      int64   `json:"failed_count"`
	TotalImages      int64   `json:"total_images"`
	TotalCollages    int64   `json:"total_collages"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
}

// DailyExecutionStats 每日执行统计
type DailyExecutionStats struct {
	Date          string `json:"date"`
	TotalCalls    int64  `json:"total_calls"`
	SuccessCount  int64  `json:"success_count"`
	TotalCollages int64  `json:"total_collages"`
}

// ==================== 仓储实现 ====================

type executionLogRepo struct {
	db *gorm.DB
}

// NewExecutionLogRepository 创建执行日志仓储
func NewExecutionLogRepository(db *gorm.DB) ExecutionLogRepository {
	return &executionLogRepo{db: db}
}

func (r *executionLogRepo) Create(ctx context.Context, log *model.ExecutionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *executionLogRepo) GetByRequestID(ctx context.Context, requestID string) (*model.ExecutionLog, error) {
	var log model.ExecutionLog
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id DESC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *executionLogRepo) GetStats(ctx context.Context, startTime, endTime time.Time) (*ExecutionStats, error) {
	var stats ExecutionStats

	query := r.db.WithContext(ctx).Model(&model.ExecutionLog{})
	if !startTime.IsZero() {
		query = query.Where("created_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("created_at <= ?", endTime)
	}

	err := query.Select(`
		COUNT(*) as total_calls,
		COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
		COALESCE(SUM(CASE WHEN status = 'config_error' THEN 1 ELSE 0 END), 0) as config_error_count,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_count,
		COALESCE(SUM(image_count), 0) as total_images,
		COALESCE(SUM(result_count), 0) as total_collages,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms
	`).Scan(&stats).Error

	return &stats, err
}

// GetDailyStats 按天分组统计，日期按数据库时区截断
func (r *executionLogRepo) GetDailyStats(ctx context.Context, startDate, endDate time.Time) ([]DailyExecutionStats, error) {
	var stats []DailyExecutionStats

	err := r.db.WithContext(ctx).Model(&model.ExecutionLog{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Select(`
			DATE(created_at) as date,
			COUNT(*) as total_calls,
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(result_count), 0) as total_collages
		`).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error

	return stats, err
}

// DeleteBefore 物理删除指定时间之前的日志，返回删除条数
func (r *executionLogRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", before).
		Delete(&model.ExecutionLog{})
	return result.RowsAffected, result.Error
}
