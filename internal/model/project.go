package model

// 项目状态
const (
	ProjectStatusActive   = "active"
	ProjectStatusActiveCA = "active_ca"
	ProjectStatusArchived = "archived"
)

// Project 项目表 — 对应 projects
type Project struct {
	ProjectID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	Name       string `gorm:"type:varchar(200);not null"                     json:"name"`
	ClientName string `gorm:"type:varchar(200);not null;default:''"          json:"client_name"`
	Status     string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel

	// 关联
	Deliverables []Deliverable `gorm:"foreignKey:ProjectID;references:ProjectID" json:"deliverables,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }
