package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Person          PersonRepository
	Project         ProjectRepository
	Deliverable     DeliverableRepository
	Assignment      AssignmentRepository
	Snapshot        SnapshotRepository
	MembershipEvent MembershipEventRepository
	Audit           ReallocationAuditRepository
	PhaseSetting    PhaseSettingRepository

	// Tx 以"每工作单元一个事务"粒度执行 fn：每周快照一个事务、
	// 每次 Overhead 同步一个事务、每次交付物移动一个事务
	Tx TxManager
}

// TxManager 事务执行器：fn 内通过事务绑定的 Repository 聚合访问数据
type TxManager interface {
	Transaction(ctx context.Context, fn func(r *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Person:          NewPersonRepo(db),
		Project:         NewProjectRepo(db),
		Deliverable:     NewDeliverableRepo(db),
		Assignment:      NewAssignmentRepo(db),
		Snapshot:        NewSnapshotRepo(db),
		MembershipEvent: NewMembershipEventRepo(db),
		Audit:           NewReallocationAuditRepo(db),
		PhaseSetting:    NewPhaseSettingRepo(db),
		Tx:              &gormTxManager{db: db},
	}
}

// gormTxManager TxManager 的 GORM 实现
type gormTxManager struct {
	db *gorm.DB
}

func (t *gormTxManager) Transaction(ctx context.Context, fn func(r *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
