package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// AssignmentRepository 分配数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	// ListActiveByProject 列出项目下的有效分配
	ListActiveByProject(ctx context.Context, projectID string) ([]model.Assignment, error)
	// ListActiveWithRelations 列出全部有效分配，预载快照计算所需关联
	// （人员+部门、项目+交付物、角色）
	ListActiveWithRelations(ctx context.Context) ([]model.Assignment, error)
	// ListPairsForUpdate 行级锁（SELECT ... FOR UPDATE）取出指定人员×项目
	// 范围内的既有分配，序列化并发的 Overhead 同步；必须在事务内调用
	ListPairsForUpdate(ctx context.Context, personIDs, projectIDs []string) ([]model.Assignment, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepo) ListActiveByProject(ctx context.Context, projectID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListActiveWithRelations(ctx context.Context) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Person").
		Preload("Person.Department").
		Preload("Project").
		Preload("Project.Deliverables", func(db *gorm.DB) *gorm.DB {
			return db.Order("date")
		}).
		Preload("Role").
		Where("is_active = ?", true).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListPairsForUpdate(ctx context.Context, personIDs, projectIDs []string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("person_id IN ? AND project_id IN ?", personIDs, projectIDs).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
