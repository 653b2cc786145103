package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collage_field_v1/internal/controller"
	"collage_field_v1/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Field *controller.FieldController
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.Recovery(logger),
	)

	InitRoutes(r, ctls)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers) {
	r.GET("/healthz", ctls.Field.Health)

	// API 路由组
	api := r.Group("/api")
	{
		// field 字段捷径
		field := api.Group("/field")
		{
			// GET /api/field/manifest
			field.GET("/manifest", ctls.Field.Manifest)
			// POST /api/field/execute
			field.POST("/execute", ctls.Field.Execute)
			// GET /api/field/stats?from=&to=&group=day
			field.GET("/stats", ctls.Field.Stats)
			// GET /api/field/executions/:request_id
			field.GET("/executions/:request_id", ctls.Field.GetExecution)
		}
	}
}
