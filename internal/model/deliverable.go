package model

import "time"

// Deliverable 交付物表 — 对应 deliverables
// 项目内按日期升序排列；日期变更触发再分配引擎
type Deliverable struct {
	DeliverableID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"deliverable_id"`
	ProjectID     string     `gorm:"type:uuid;not null"                             json:"project_id"`
	Description   string     `gorm:"type:varchar(500);not null;default:''"          json:"description"`
	Percentage    *int       `gorm:""                                               json:"percentage,omitempty"`
	Date          *time.Time `gorm:"type:date"                                      json:"date,omitempty"`
	IsCompleted   bool       `gorm:"not null;default:false"                         json:"is_completed"`
	BaseModel
}

// TableName 指定表名
func (Deliverable) TableName() string { return "deliverables" }
