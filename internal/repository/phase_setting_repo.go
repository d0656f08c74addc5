package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// PhaseSettingRepository 阶段映射配置数据访问接口（单行配置表）
type PhaseSettingRepository interface {
	Get(ctx context.Context) (*model.PhaseSetting, error)
	Update(ctx context.Context, setting *model.PhaseSetting) error
}

// phaseSettingRepo PhaseSettingRepository 的 GORM 实现
type phaseSettingRepo struct {
	db *gorm.DB
}

// NewPhaseSettingRepo 创建 PhaseSettingRepository 实例
func NewPhaseSettingRepo(db *gorm.DB) PhaseSettingRepository {
	return &phaseSettingRepo{db: db}
}

func (r *phaseSettingRepo) Get(ctx context.Context) (*model.PhaseSetting, error) {
	var setting model.PhaseSetting
	if err := r.db.WithContext(ctx).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *phaseSettingRepo) Update(ctx context.Context, setting *model.PhaseSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}
