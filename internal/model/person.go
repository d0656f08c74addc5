package model

// Person 人员表 — 对应 people
type Person struct {
	PersonID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"person_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	RoleID       *string `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Role       *Role       `gorm:"foreignKey:RoleID;references:RoleID"             json:"role,omitempty"`
}

// TableName 指定表名
func (Person) TableName() string { return "people" }
