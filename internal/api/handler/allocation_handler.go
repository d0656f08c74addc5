package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/service"
	"github.com/tschnepf/workload-tracker-sub001/pkg/response"
)

// AllocationHandler 再分配与阶段分类的只读计算接口
type AllocationHandler struct {
	classifier *service.PhaseClassifier
}

// NewAllocationHandler 创建 AllocationHandler
func NewAllocationHandler(classifier *service.PhaseClassifier) *AllocationHandler {
	return &AllocationHandler{classifier: classifier}
}

// ReallocatePreview 再分配纯计算预览（不落库）
// POST /api/v1/allocations/reallocate
func (h *AllocationHandler) ReallocatePreview(c *gin.Context) {
	var req dto.ReallocatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "请求参数错误: "+err.Error())
		return
	}

	oldDate, err := parseOptionalDate(req.OldDate)
	if err != nil {
		response.BadRequest(c, 23002, "old_date 格式非法")
		return
	}
	newDate, err := parseOptionalDate(req.NewDate)
	if err != nil {
		response.BadRequest(c, 23003, "new_date 格式非法")
		return
	}

	var window *service.ReallocationWindow
	if req.WindowStart != nil || req.WindowEnd != nil {
		start, err := parseOptionalDate(req.WindowStart)
		if err != nil {
			response.BadRequest(c, 23004, "window_start 格式非法")
			return
		}
		end, err := parseOptionalDate(req.WindowEnd)
		if err != nil {
			response.BadRequest(c, 23005, "window_end 格式非法")
			return
		}
		window = &service.ReallocationWindow{Start: start, End: end}
	}

	result := service.Reallocate(model.WeeklyHoursMap(req.WeeklyHours), oldDate, newDate, window)
	response.OK(c, gin.H{"weekly_hours": result})
}

// Classify 阶段分类（只读计算，输入即输出依据）
// POST /api/v1/phases/classify
func (h *AllocationHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23006, "请求参数错误: "+err.Error())
		return
	}

	weekStart, err := service.ParseWeekKey(req.WeekKey)
	if err != nil {
		response.BadRequest(c, 23007, "week_key 格式非法")
		return
	}
	weekKey := service.WeekKey(weekStart)

	status := req.ProjectStatus
	if status == "" {
		status = model.ProjectStatusActive
	}

	deliverables := make([]service.NormalizedDeliverable, 0, len(req.Deliverables))
	for _, d := range req.Deliverables {
		date, err := time.Parse(service.WeekKeyLayout, d.Date)
		if err != nil {
			response.BadRequest(c, 23008, "交付物日期格式非法: "+d.Date)
			return
		}
		deliverables = append(deliverables, service.NormalizedDeliverable{
			WeekKey:     service.WeekKey(date),
			Percentage:  d.Percentage,
			Description: d.Description,
			IsMonday:    date.Weekday() == time.Monday,
		})
	}

	phase := h.classifier.ClassifyWeek(c.Request.Context(), weekKey, status, deliverables)
	response.OK(c, dto.ClassifyResponse{WeekKey: weekKey, Phase: phase})
}

// parseOptionalDate 解析可选 ISO 日期字段
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(service.WeekKeyLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
