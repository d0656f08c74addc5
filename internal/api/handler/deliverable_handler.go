package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// DeliverableHandler 交付物移动/撤销模块 HTTP 处理器
type DeliverableHandler struct {
	deliverableSvc service.DeliverableService
}

// NewDeliverableHandler 创建 DeliverableHandler
func NewDeliverableHandler(deliverableSvc service.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{deliverableSvc: deliverableSvc}
}

// Move 移动交付物日期并平移项目内分配工时
// POST /api/v1/deliverables/:id/move
func (h *DeliverableHandler) Move(c *gin.Context) {
	deliverableID := c.Param("id")

	var req dto.MoveDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 24001, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.deliverableSvc.MoveDeliverableDate(c.Request.Context(), deliverableID, req.NewDate, nil)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeliverableNotFound):
			response.NotFound(c, 24002, "交付物不存在")
		case errors.Is(err, service.ErrInvalidDate):
			response.BadRequest(c, 24003, "new_date 格式非法")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}

// Undo 按审计记录撤销一次再分配
// POST /api/v1/reallocations/:id/undo
func (h *DeliverableHandler) Undo(c *gin.Context) {
	auditID := c.Param("id")

	result, err := h.deliverableSvc.UndoReallocation(c.Request.Context(), auditID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuditNotFound):
			response.NotFound(c, 24004, "再分配审计不存在")
		case errors.Is(err, service.ErrAuditAlreadyUndone):
			response.Conflict(c, 24005, "该次再分配已撤销")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}
