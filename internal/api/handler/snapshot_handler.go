package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// SnapshotHandler 快照模块 HTTP 处理器
type SnapshotHandler struct {
	snapshotSvc service.SnapshotService
}

// NewSnapshotHandler 创建 SnapshotHandler
func NewSnapshotHandler(snapshotSvc service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotSvc: snapshotSvc}
}

// Materialize 物化单周快照
// POST /api/v1/snapshots/materialize
func (h *SnapshotHandler) Materialize(c *gin.Context) {
	var req dto.MaterializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.snapshotSvc.MaterializeWeek(c.Request.Context(), req.WeekKey, dto.MaterializeOptions{
		EmitEvents: req.EmitEvents,
		Force:      req.Force,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeekKey) {
			response.BadRequest(c, 21002, "周键格式非法")
			return
		}
		response.InternalError(c)
		return
	}

	// 锁未获取：已受理但本次未执行，调用方可稍后重试
	if !result.LockAcquired {
		response.Accepted(c, result)
		return
	}
	response.OK(c, result)
}

// Backfill 多周回填
// POST /api/v1/snapshots/backfill
func (h *SnapshotHandler) Backfill(c *gin.Context) {
	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21003, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.snapshotSvc.BackfillWeeks(c.Request.Context(), req.WeekKeys, req.EmitEvents, req.Force)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
