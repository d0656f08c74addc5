package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// ReallocationAuditRepository 再分配审计数据访问接口
type ReallocationAuditRepository interface {
	Create(ctx context.Context, audit *model.ReallocationAudit) error
	GetByID(ctx context.Context, id string) (*model.ReallocationAudit, error)
	Update(ctx context.Context, audit *model.ReallocationAudit) error
}

// reallocationAuditRepo ReallocationAuditRepository 的 GORM 实现
type reallocationAuditRepo struct {
	db *gorm.DB
}

// NewReallocationAuditRepo 创建 ReallocationAuditRepository 实例
func NewReallocationAuditRepo(db *gorm.DB) ReallocationAuditRepository {
	return &reallocationAuditRepo{db: db}
}

func (r *reallocationAuditRepo) Create(ctx context.Context, audit *model.ReallocationAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *reallocationAuditRepo) GetByID(ctx context.Context, id string) (*model.ReallocationAudit, error) {
	var audit model.ReallocationAudit
	err := r.db.WithContext(ctx).
		Where("audit_id = ?", id).
		First(&audit).Error
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *reallocationAuditRepo) Update(ctx context.Context, audit *model.ReallocationAudit) error {
	return r.db.WithContext(ctx).Save(audit).Error
}
