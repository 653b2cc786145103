package model

import "gorm.io/datatypes"

// ExecutionLog 字段捷径执行日志
// 每次执行写入一条，仅用于统计与排障，不参与执行流程
type ExecutionLog struct {
	BaseModel

	// 关联
	RequestID string `gorm:"size:64;index" json:"request_id"`

	// 请求信息
	ImageCount  int            `gorm:"default:0" json:"image_count"`
	AspectRatio string         `gorm:"size:16" json:"aspect_ratio"`
	HasTitle    bool           `gorm:"default:false" json:"has_title"`
	RequestBody datatypes.JSON `json:"request_body,omitempty"`

	// 结果
	ResultCode     int    `gorm:"index" json:"result_code"`
	ResultCount    int    `gorm:"default:0" json:"result_count"`
	UpstreamStatus int    `gorm:"default:0" json:"upstream_status"`
	Status         string `gorm:"size:32;index;default:success" json:"status"`
	ErrorMsg       string `gorm:"size:1024" json:"error_msg,omitempty"`

	// 性能
	DurationMs int64 `json:"duration_ms"`
}

func (ExecutionLog) TableName() string {
	return "field_execution_logs"
}

// ==================== 状态常量 ====================

const (
	ExecutionStatusSuccess     = "success"
	ExecutionStatusConfigError = "config_error"
	ExecutionStatusFailed      = "failed"
)
