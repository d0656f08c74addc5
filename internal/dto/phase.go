package dto

// PhaseSettingsResponse 当前生效的阶段映射配置（默认值与配置行合并后）
type PhaseSettingsResponse struct {
	Tokens map[string][]string     `json:"tokens"`
	Bands  map[string]PhaseBandDTO `json:"bands"`
}

// PhaseBandDTO 百分比区间（双端含）
type PhaseBandDTO struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// UpdatePhaseSettingsRequest 阶段映射配置更新请求；
// 仅覆盖给出的阶段，缺失的阶段保留现值
type UpdatePhaseSettingsRequest struct {
	Tokens map[string][]string     `json:"tokens,omitempty"`
	Bands  map[string]PhaseBandDTO `json:"bands,omitempty"`
}
