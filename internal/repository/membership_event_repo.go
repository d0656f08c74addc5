package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// MembershipEventRepository 成员变动事件数据访问接口
type MembershipEventRepository interface {
	// InsertIfAbsent 幂等写入：键已存在时为 no-op，返回是否实际插入
	InsertIfAbsent(ctx context.Context, event *model.AssignmentMembershipEvent) (bool, error)
	ListByWeek(ctx context.Context, weekKey string) ([]model.AssignmentMembershipEvent, error)
}

// membershipEventRepo MembershipEventRepository 的 GORM 实现
type membershipEventRepo struct {
	db *gorm.DB
}

// NewMembershipEventRepo 创建 MembershipEventRepository 实例
func NewMembershipEventRepo(db *gorm.DB) MembershipEventRepository {
	return &membershipEventRepo{db: db}
}

func (r *membershipEventRepo) InsertIfAbsent(ctx context.Context, event *model.AssignmentMembershipEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "person_id"}, {Name: "project_id"}, {Name: "role_id"},
				{Name: "event_type"}, {Name: "week_key"},
			},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *membershipEventRepo) ListByWeek(ctx context.Context, weekKey string) ([]model.AssignmentMembershipEvent, error) {
	var events []model.AssignmentMembershipEvent
	err := r.db.WithContext(ctx).
		Where("week_key = ?", weekKey).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
