package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// PersonRepository 人员数据访问接口
type PersonRepository interface {
	GetByID(ctx context.Context, id string) (*model.Person, error)
	// ListActive 列出在职人员；ids 非空时限定范围
	ListActive(ctx context.Context, ids []string) ([]model.Person, error)
}

// personRepo PersonRepository 的 GORM 实现
type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Role").
		Where("person_id = ?", id).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) ListActive(ctx context.Context, ids []string) ([]model.Person, error) {
	var people []model.Person
	db := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Role").
		Where("is_active = ?", true)
	if len(ids) > 0 {
		db = db.Where("person_id IN ?", ids)
	}
	if err := db.Order("name").Find(&people).Error; err != nil {
		return nil, err
	}
	return people, nil
}
