package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ── 每周工时 JSONB 自定义类型 ──

// WeeklyHoursMap 周键 → 工时 的映射，对应 PostgreSQL JSONB 列。
// 键为规范周键（ISO 日期字符串，周日对齐）；读取时对工时做统一数值矫正。
type WeeklyHoursMap map[string]float64

// CoerceHours 工时数值矫正：parse-or-zero + 负值归零。
// 所有读取每周工时的组件共用此函数，矫正策略只在这里定义一次。
func CoerceHours(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}

// Scan 将 JSONB 文本解析为 WeeklyHoursMap，逐项做数值矫正
func (m *WeeklyHoursMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("WeeklyHoursMap.Scan: unsupported type %T", src)
	}

	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("WeeklyHoursMap.Scan: invalid json: %w", err)
	}

	out := make(WeeklyHoursMap, len(raw))
	for k, v := range raw {
		out[k] = CoerceHours(v)
	}
	*m = out
	return nil
}

// Value 将 WeeklyHoursMap 序列化为 JSONB 文本
func (m WeeklyHoursMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]float64(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Clone 深拷贝（审计前后快照用）
func (m WeeklyHoursMap) Clone() WeeklyHoursMap {
	if m == nil {
		return nil
	}
	out := make(WeeklyHoursMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}
