package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSnapshots 导出某周快照为 Excel
// GET /api/v1/export/snapshots?week_key=xxx
func (h *ExportHandler) ExportSnapshots(c *gin.Context) {
	weekKey := c.Query("week_key")
	if weekKey == "" {
		response.BadRequest(c, 26001, "week_key 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportWeek(c.Request.Context(), weekKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWeekKey):
			response.BadRequest(c, 26002, "week_key 格式非法")
		case errors.Is(err, service.ErrExportNoSnapshots):
			response.NotFound(c, 26003, "该周暂无快照数据")
		default:
			response.InternalError(c)
		}
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
