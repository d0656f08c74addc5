package model

import "time"

// Assignment 分配表 — 对应 assignments
// 人员↔项目链接，携带每周工时映射；成员离开时置为 inactive 而非删除（保留阶段历史）
type Assignment struct {
	AssignmentID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	PersonID     string         `gorm:"type:uuid;not null"                             json:"person_id"`
	ProjectID    string         `gorm:"type:uuid;not null"                             json:"project_id"`
	RoleID       *string        `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	DepartmentID *string        `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	WeeklyHours  WeeklyHoursMap `gorm:"type:jsonb;not null;default:'{}'"               json:"weekly_hours"`
	IsActive     bool           `gorm:"not null;default:true"                          json:"is_active"`
	StartDate    *time.Time     `gorm:"type:date"                                      json:"start_date,omitempty"`
	EndDate      *time.Time     `gorm:"type:date"                                      json:"end_date,omitempty"`
	BaseModel

	// 关联
	Person  *Person  `gorm:"foreignKey:PersonID;references:PersonID"    json:"person,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID"  json:"project,omitempty"`
	Role    *Role    `gorm:"foreignKey:RoleID;references:RoleID"        json:"role,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// ActiveInWeek 判断分配在给定周（周日起始，weekStart~weekStart+6天）是否处于有效窗口
func (a *Assignment) ActiveInWeek(weekStart time.Time) bool {
	if !a.IsActive {
		return false
	}
	weekEnd := weekStart.AddDate(0, 0, 6)
	if a.StartDate != nil && a.StartDate.After(weekEnd) {
		return false
	}
	if a.EndDate != nil && a.EndDate.Before(weekStart) {
		return false
	}
	return true
}
