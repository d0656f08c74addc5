package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// SnapshotRepository 每周分配快照数据访问接口
type SnapshotRepository interface {
	// GetByKey 按唯一键取快照行
	GetByKey(ctx context.Context, personID, projectID, roleID, weekKey, source string) (*model.WeeklyAssignmentSnapshot, error)
	// Create 新建快照行；与并发 upsert 相遇时按键冲突不报错（DoNothing 保护）
	Create(ctx context.Context, snapshot *model.WeeklyAssignmentSnapshot) error
	Update(ctx context.Context, snapshot *model.WeeklyAssignmentSnapshot) error
	ListByWeek(ctx context.Context, weekKey string) ([]model.WeeklyAssignmentSnapshot, error)
}

// snapshotRepo SnapshotRepository 的 GORM 实现
type snapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepo 创建 SnapshotRepository 实例
func NewSnapshotRepo(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) GetByKey(ctx context.Context, personID, projectID, roleID, weekKey, source string) (*model.WeeklyAssignmentSnapshot, error) {
	var snapshot model.WeeklyAssignmentSnapshot
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND project_id = ? AND role_id = ? AND week_key = ? AND source = ?",
			personID, projectID, roleID, weekKey, source).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *snapshotRepo) Create(ctx context.Context, snapshot *model.WeeklyAssignmentSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "person_id"}, {Name: "project_id"}, {Name: "role_id"},
				{Name: "week_key"}, {Name: "source"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"person_name", "project_name", "client_name",
				"department_id", "hours", "phase", "updated_at",
			}),
		}).
		Create(snapshot).Error
}

func (r *snapshotRepo) Update(ctx context.Context, snapshot *model.WeeklyAssignmentSnapshot) error {
	return r.db.WithContext(ctx).Save(snapshot).Error
}

func (r *snapshotRepo) ListByWeek(ctx context.Context, weekKey string) ([]model.WeeklyAssignmentSnapshot, error) {
	var snapshots []model.WeeklyAssignmentSnapshot
	err := r.db.WithContext(ctx).
		Where("week_key = ?", weekKey).
		Order("project_name, person_name").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
