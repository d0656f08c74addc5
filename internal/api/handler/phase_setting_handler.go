package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// PhaseSettingHandler 阶段映射配置 HTTP 处理器
type PhaseSettingHandler struct {
	settingSvc service.PhaseSettingService
}

// NewPhaseSettingHandler 创建 PhaseSettingHandler
func NewPhaseSettingHandler(settingSvc service.PhaseSettingService) *PhaseSettingHandler {
	return &PhaseSettingHandler{settingSvc: settingSvc}
}

// Get 读取当前生效配置
// GET /api/v1/phase-settings
func (h *PhaseSettingHandler) Get(c *gin.Context) {
	result, err := h.settingSvc.GetSettings(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Update 覆盖给出阶段的配置
// PUT /api/v1/phase-settings
func (h *PhaseSettingHandler) Update(c *gin.Context) {
	var req dto.UpdatePhaseSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 25001, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.settingSvc.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhaseBand) {
			response.BadRequest(c, 25002, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
