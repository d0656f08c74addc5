package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── 阶段配置模块业务错误 ──

var (
	ErrInvalidPhaseBand = errors.New("百分比区间非法")
)

// PhaseSettingService 阶段映射配置管理接口
type PhaseSettingService interface {
	// GetSettings 返回当前生效配置（默认值与配置行合并后的视图）
	GetSettings(ctx context.Context) (*dto.PhaseSettingsResponse, error)
	// UpdateSettings 覆盖给出阶段的配置并立即失效分类器缓存
	UpdateSettings(ctx context.Context, req *dto.UpdatePhaseSettingsRequest) (*dto.PhaseSettingsResponse, error)
}

type phaseSettingService struct {
	repo     *repository.Repository
	provider PhaseConfigProvider
	logger   *zap.Logger
}

// NewPhaseSettingService 创建 PhaseSettingService 实例
func NewPhaseSettingService(repo *repository.Repository, provider PhaseConfigProvider, logger *zap.Logger) PhaseSettingService {
	return &phaseSettingService{repo: repo, provider: provider, logger: logger}
}

func (s *phaseSettingService) GetSettings(ctx context.Context) (*dto.PhaseSettingsResponse, error) {
	cfg, err := s.provider.Get(ctx)
	if err != nil {
		s.logger.Warn("阶段映射配置加载失败，返回默认配置", zap.Error(err))
		cfg = DefaultPhaseConfig()
	}
	return toSettingsResponse(cfg), nil
}

func (s *phaseSettingService) UpdateSettings(ctx context.Context, req *dto.UpdatePhaseSettingsRequest) (*dto.PhaseSettingsResponse, error) {
	for phase, band := range req.Bands {
		if band.Min < 0 || band.Max > 100 || band.Min > band.Max {
			return nil, fmt.Errorf("%w: %s [%d, %d]", ErrInvalidPhaseBand, phase, band.Min, band.Max)
		}
	}

	setting, err := s.repo.PhaseSetting.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 配置行懒初始化
		setting = &model.PhaseSetting{}
	}

	if len(req.Tokens) > 0 {
		merged := map[string][]string{}
		if len(setting.PhaseTokens) > 0 {
			if err := json.Unmarshal(setting.PhaseTokens, &merged); err != nil {
				return nil, err
			}
		}
		for phase, list := range req.Tokens {
			merged[phase] = list
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}
		setting.PhaseTokens = datatypes.JSON(raw)
	}

	if len(req.Bands) > 0 {
		merged := map[string]dto.PhaseBandDTO{}
		if len(setting.PhaseBands) > 0 {
			if err := json.Unmarshal(setting.PhaseBands, &merged); err != nil {
				return nil, err
			}
		}
		for phase, band := range req.Bands {
			merged[phase] = band
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}
		setting.PhaseBands = datatypes.JSON(raw)
	}

	if err := s.repo.PhaseSetting.Update(ctx, setting); err != nil {
		return nil, err
	}

	// 写库成功后立即失效缓存，避免 TTL 窗口内读到旧配置
	s.provider.Invalidate()
	s.logger.Info("阶段映射配置已更新")

	cfg, err := s.provider.Get(ctx)
	if err != nil {
		cfg = DefaultPhaseConfig()
	}
	return toSettingsResponse(cfg), nil
}

func toSettingsResponse(cfg *PhaseConfig) *dto.PhaseSettingsResponse {
	resp := &dto.PhaseSettingsResponse{
		Tokens: make(map[string][]string, len(cfg.Tokens)),
		Bands:  make(map[string]dto.PhaseBandDTO, len(cfg.Bands)),
	}
	for phase, list := range cfg.Tokens {
		resp.Tokens[phase] = append([]string(nil), list...)
	}
	for phase, band := range cfg.Bands {
		resp.Bands[phase] = dto.PhaseBandDTO{Min: band.Min, Max: band.Max}
	}
	return resp
}
