package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// ListOverhead 列出 Overhead 项目（名称标记为 overhead 的工时归集项目）；
	// ids 非空时限定范围
	ListOverhead(ctx context.Context, ids []string) ([]model.Project, error)
}

// projectRepo ProjectRepository 的 GORM 实现
type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Deliverables", func(db *gorm.DB) *gorm.DB {
			return db.Order("date")
		}).
		Where("project_id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) ListOverhead(ctx context.Context, ids []string) ([]model.Project, error) {
	var projects []model.Project
	db := r.db.WithContext(ctx).Where("name ILIKE ?", "%overhead%")
	if len(ids) > 0 {
		db = db.Where("project_id IN ?", ids)
	}
	if err := db.Order("name").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
