package model

import (
	"time"

	"gorm.io/datatypes"
)

// PhaseSetting 阶段映射配置表 — 对应 phase_settings（单行）
// PhaseTokens: 阶段 → 描述关键词列表；PhaseBands: 阶段 → 百分比区间
// 分类器通过带 TTL 缓存的 Provider 读取；读取失败时回退到硬编码默认值
type PhaseSetting struct {
	SettingID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"setting_id"`
	PhaseTokens datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"phase_tokens"`
	PhaseBands  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"phase_bands"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	UpdatedBy   *string        `gorm:"type:uuid"                                      json:"updated_by,omitempty"`
}

// TableName 指定表名
func (PhaseSetting) TableName() string { return "phase_settings" }
