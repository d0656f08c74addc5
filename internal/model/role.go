package model

// Role 角色表 — 对应 roles
// OverheadHoursPerWeek 为角色策略：每周应计入 Overhead 项目的工时
type Role struct {
	RoleID               string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	Name                 string `gorm:"type:varchar(100);not null"                     json:"name"`
	OverheadHoursPerWeek int    `gorm:"not null;default:0"                             json:"overhead_hours_per_week"`
	BaseModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }
