package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"collage_field_v1/internal/api/dto"
	"collage_field_v1/internal/model"
	"collage_field_v1/internal/repository"
	"collage_field_v1/internal/service"
)

const (
	dateLayout = "2006-01-02"

	// 按天分组且未指定开始日期时，默认回看的天数
	defaultDailyRangeDays = 30
)

// ==================== 控制器 ====================

// FieldController 拼图字段控制器
type FieldController struct {
	collageService *service.CollageService
	execLogRepo    repository.ExecutionLogRepository
	manifest       *model.FieldManifest
}

// NewFieldController 创建控制器
// execLogRepo 可为空，为空时统计接口返回 503
func NewFieldController(collageService *service.CollageService, execLogRepo repository.ExecutionLogRepository) *FieldController {
	return &FieldController{
		collageService: collageService,
		execLogRepo:    execLogRepo,
		manifest:       model.DefaultFieldManifest(),
	}
}

// ==================== API 方法 ====================

// Manifest 字段注册清单
// @Summary 获取字段表单、结果类型与域名白名单
// @Tags Field
// @Produce json
// @Router /api/field/manifest [get]
func (ctrl *FieldController) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    ctrl.manifest,
	})
}

// Execute 执行字段
// @Summary 根据表单参数生成拼图附件
// @Tags Field
// @Accept json
// @Produce json
// @Param body body dto.ExecuteRequest true "表单参数"
// @Success 200 {object} dto.ExecutionResult
// @Router /api/field/execute [post]
func (ctrl *FieldController) Execute(c *gin.Context) {
	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 表单字段形状不对属于用户配置问题，同样以信封返回
		c.JSON(http.StatusOK, service.Failure(dto.FieldCodeConfigError, "invalid form params: "+err.Error()))
		return
	}

	// 业务失败也以 200 返回，由信封中的 code 区分
	result := ctrl.collageService.Execute(c.Request.Context(), &req.FormItemParams)
	c.JSON(http.StatusOK, result)
}

// Stats 执行统计
// @Summary 查询执行统计，group=day 时返回每日统计
// @Tags Field
// @Param from query string false "开始日期 YYYY-MM-DD"
// @Param to query string false "结束日期 YYYY-MM-DD"
// @Param group query string false "分组方式，目前仅支持 day"
// @Router /api/field/stats [get]
func (ctrl *FieldController) Stats(c *gin.Context) {
	if !ctrl.requireExecLog(c) {
		return
	}

	group := c.Query("group")
	if group != "" && group != "day" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "不支持的分组方式: " + group})
		return
	}

	var from, to time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的开始日期"})
			return
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的结束日期"})
			return
		}
		// 包含结束日期当天
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "开始日期不能晚于结束日期"})
		return
	}

	var (
		data interface{}
		err  error
	)
	if group == "day" {
		// 每日统计需要明确的时间范围
		if to.IsZero() {
			to = time.Now()
		}
		if from.IsZero() {
			from = to.AddDate(0, 0, -defaultDailyRangeDays)
		}
		data, err = ctrl.execLogRepo.GetDailyStats(c.Request.Context(), from, to)
	} else {
		data, err = ctrl.execLogRepo.GetStats(c.Request.Context(), from, to)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// GetExecution 按请求 ID 查询单次执行记录
// @Summary 查询执行记录，请求 ID 即响应头 X-Request-ID
// @Tags Field
// @Param request_id path string true "请求 ID"
// @Router /api/field/executions/{request_id} [get]
func (ctrl *FieldController) GetExecution(c *gin.Context) {
	if !ctrl.requireExecLog(c) {
		return
	}

	requestID := c.Param("request_id")
	log, err := ctrl.execLogRepo.GetByRequestID(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "执行记录不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    log,
	})
}

// requireExecLog 执行日志未启用时返回 503
func (ctrl *FieldController) requireExecLog(c *gin.Context) bool {
	if ctrl.execLogRepo != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"code":    503,
		"message": "执行日志未启用",
	})
	return false
}

// Health 健康检查
func (ctrl *FieldController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
