package model

import (
	"time"

	"gorm.io/datatypes"
)

// ReallocationAuditEntry 单条被触及分配的前后工时映射（Entries JSONB 的元素）
type ReallocationAuditEntry struct {
	AssignmentID string         `json:"assignment_id"`
	Before       WeeklyHoursMap `json:"before"`
	After        WeeklyHoursMap `json:"after"`
}

// ReallocationAudit 再分配审计表 — 对应 reallocation_audits
// 记录一次交付物日期变更触及的全部分配及其前后工时映射，用于精确撤销；
// 每次再分配操作产生一行，仅被显式 undo 消费一次
type ReallocationAudit struct {
	AuditID       string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	DeliverableID string         `gorm:"type:uuid;not null"                             json:"deliverable_id"`
	ProjectID     string         `gorm:"type:uuid;not null"                             json:"project_id"`
	OldDate       *time.Time     `gorm:"type:date"                                      json:"old_date,omitempty"`
	NewDate       time.Time      `gorm:"type:date;not null"                             json:"new_date"`
	Entries       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"               json:"entries"`
	UndoneAt      *time.Time     `gorm:""                                               json:"undone_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy     *string        `gorm:"type:uuid"                                      json:"created_by,omitempty"`
}

// TableName 指定表名
func (ReallocationAudit) TableName() string { return "reallocation_audits" }
