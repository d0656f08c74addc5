package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// OverheadHandler Overhead 对账模块 HTTP 处理器
type OverheadHandler struct {
	overheadSvc service.OverheadService
}

// NewOverheadHandler 创建 OverheadHandler
func NewOverheadHandler(overheadSvc service.OverheadService) *OverheadHandler {
	return &OverheadHandler{overheadSvc: overheadSvc}
}

// Sync 定向/全量 Overhead 对账（不经过 TTL 互斥锁）
// POST /api/v1/overhead/sync
func (h *OverheadHandler) Sync(c *gin.Context) {
	var req dto.OverheadSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "请求参数错误: "+err.Error())
		return
	}

	scope := dto.OverheadScope{PersonIDs: req.PersonIDs, ProjectIDs: req.ProjectIDs}
	result, err := h.overheadSvc.SyncOverheadAssignments(c.Request.Context(), scope, req.Weeks)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// MaybeSync 全量 Overhead 对账（TTL 互斥：窗口内至多执行一次）
// POST /api/v1/overhead/maybe-sync
func (h *OverheadHandler) MaybeSync(c *gin.Context) {
	var req dto.MaybeOverheadSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22002, "请求参数错误: "+err.Error())
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	result, err := h.overheadSvc.MaybeSyncOverheadAssignments(c.Request.Context(), req.Weeks, ttl)
	if err != nil {
		response.InternalError(c)
		return
	}

	if !result.LockAcquired {
		response.Accepted(c, result)
		return
	}
	response.OK(c, result)
}
