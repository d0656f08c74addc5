package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/config"
	"github.com/tschnepf/workload-tracker-sub001/internal/api/handler"
	"github.com/tschnepf/workload-tracker-sub001/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 快照模块
		snapshots := v1.Group("/snapshots")
		{
			snapshots.POST("/materialize", h.Snapshot.Materialize)
			snapshots.POST("/backfill", h.Snapshot.Backfill)
		}

		// Overhead 对账模块
		overhead := v1.Group("/overhead")
		{
			overhead.POST("/sync", h.Overhead.Sync)
			overhead.POST("/maybe-sync", h.Overhead.MaybeSync)
		}

		// 再分配与阶段分类（只读计算）
		v1.POST("/allocations/reallocate", h.Allocation.ReallocatePreview)
		v1.POST("/phases/classify", h.Allocation.Classify)

		// 交付物移动与撤销
		v1.POST("/deliverables/:id/move", h.Deliverable.Move)
		v1.POST("/reallocations/:id/undo", h.Deliverable.Undo)

		// 阶段映射配置
		phaseSettings := v1.Group("/phase-settings")
		{
			phaseSettings.GET("", h.PhaseSetting.Get)
			phaseSettings.PUT("", h.PhaseSetting.Update)
		}

		// 导出模块
		v1.GET("/export/snapshots", h.Export.ExportSnapshots)
	}

	return r
}
