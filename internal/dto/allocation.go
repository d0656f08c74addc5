package dto

// ReallocatePreviewRequest 再分配纯计算预览请求（不落库）
type ReallocatePreviewRequest struct {
	WeeklyHours map[string]float64 `json:"weekly_hours" binding:"required"`
	OldDate     *string            `json:"old_date,omitempty"` // ISO 日期
	NewDate     *string            `json:"new_date,omitempty"`
	WindowStart *string            `json:"window_start,omitempty"`
	WindowEnd   *string            `json:"window_end,omitempty"`
}

// MoveDeliverableRequest 交付物日期移动请求
type MoveDeliverableRequest struct {
	NewDate string `json:"new_date" binding:"required"` // ISO 日期
}

// MoveDeliverableResponse 交付物日期移动结果
type MoveDeliverableResponse struct {
	DeliverableID      string  `json:"deliverable_id"`
	AuditID            string  `json:"audit_id"`
	OldDate            *string `json:"old_date,omitempty"`
	NewDate            string  `json:"new_date"`
	TouchedAssignments int     `json:"touched_assignments"`
}

// UndoReallocationResponse 再分配撤销结果
type UndoReallocationResponse struct {
	AuditID             string `json:"audit_id"`
	RestoredAssignments int    `json:"restored_assignments"`
}

// ClassifyRequest 阶段分类请求
type ClassifyRequest struct {
	WeekKey       string                `json:"week_key" binding:"required"`
	ProjectStatus string                `json:"project_status"`
	Deliverables  []ClassifyDeliverable `json:"deliverables"`
}

// ClassifyDeliverable 分类请求中的交付物
type ClassifyDeliverable struct {
	Date        string `json:"date" binding:"required"` // ISO 日期
	Percentage  *int   `json:"percentage,omitempty"`
	Description string `json:"description"`
}

// ClassifyResponse 阶段分类结果
type ClassifyResponse struct {
	WeekKey string `json:"week_key"`
	Phase   string `json:"phase"`
}
