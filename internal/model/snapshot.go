package model

import "time"

// 快照来源
const (
	SnapshotSourceLive       = "live"
	SnapshotSourceBackfilled = "backfilled"
)

// NilRoleID 分配未限定角色时快照/事件键中使用的占位角色 ID
// （唯一约束列不允许 NULL，否则同键行可重复）
const NilRoleID = "00000000-0000-0000-0000-000000000000"

// WeeklyAssignmentSnapshot 每周分配快照事实表 — 对应 weekly_assignment_snapshots
// 键 (person, project, role, week, source) 唯一；幂等 upsert，永不重复
type WeeklyAssignmentSnapshot struct {
	SnapshotID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"snapshot_id"`
	PersonID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_snapshot_key"   json:"person_id"`
	ProjectID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_snapshot_key"   json:"project_id"`
	RoleID       string    `gorm:"type:uuid;not null;uniqueIndex:uq_snapshot_key"   json:"role_id"`
	WeekKey      string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_snapshot_key" json:"week_key"`
	Source       string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_snapshot_key" json:"source"`
	PersonName   string    `gorm:"type:varchar(100);not null;default:''"            json:"person_name"`
	ProjectName  string    `gorm:"type:varchar(200);not null;default:''"            json:"project_name"`
	ClientName   string    `gorm:"type:varchar(200);not null;default:''"            json:"client_name"`
	DepartmentID *string   `gorm:"type:uuid"                                        json:"department_id,omitempty"`
	Hours        int       `gorm:"not null;default:0"                               json:"hours"`
	Phase        string    `gorm:"type:varchar(20);not null;default:'OTHER'"        json:"phase"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"               json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"               json:"updated_at"`
}

// TableName 指定表名
func (WeeklyAssignmentSnapshot) TableName() string { return "weekly_assignment_snapshots" }

// 成员变动事件类型
const (
	EventTypeJoined = "joined"
	EventTypeLeft   = "left"
)

// AssignmentMembershipEvent 成员变动事件表 — 对应 assignment_membership_events
// 键 (person, project, role, event_type, week) 唯一；append-only，重复写入为 no-op
type AssignmentMembershipEvent struct {
	EventID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"event_id"`
	PersonID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_membership_event"      json:"person_id"`
	ProjectID string    `gorm:"type:uuid;not null;uniqueIndex:uq_membership_event"      json:"project_id"`
	RoleID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_membership_event"      json:"role_id"`
	EventType string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_membership_event" json:"event_type"`
	WeekKey   string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_membership_event" json:"week_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"created_at"`
}

// TableName 指定表名
func (AssignmentMembershipEvent) TableName() string { return "assignment_membership_events" }
