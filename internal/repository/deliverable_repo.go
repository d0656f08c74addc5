package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// DeliverableRepository 交付物数据访问接口
type DeliverableRepository interface {
	GetByID(ctx context.Context, id string) (*model.Deliverable, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Deliverable, error)
	Update(ctx context.Context, deliverable *model.Deliverable) error
}

// deliverableRepo DeliverableRepository 的 GORM 实现
type deliverableRepo struct {
	db *gorm.DB
}

// NewDeliverableRepo 创建 DeliverableRepository 实例
func NewDeliverableRepo(db *gorm.DB) DeliverableRepository {
	return &deliverableRepo{db: db}
}

func (r *deliverableRepo) GetByID(ctx context.Context, id string) (*model.Deliverable, error) {
	var deliverable model.Deliverable
	err := r.db.WithContext(ctx).
		Where("deliverable_id = ?", id).
		First(&deliverable).Error
	if err != nil {
		return nil, err
	}
	return &deliverable, nil
}

func (r *deliverableRepo) ListByProject(ctx context.Context, projectID string) ([]model.Deliverable, error) {
	var deliverables []model.Deliverable
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date").
		Find(&deliverables).Error
	if err != nil {
		return nil, err
	}
	return deliverables, nil
}

func (r *deliverableRepo) Update(ctx context.Context, deliverable *model.Deliverable) error {
	return r.db.WithContext(ctx).Save(deliverable).Error
}
